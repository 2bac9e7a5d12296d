package main

import "github.com/notargets/goflash/cmd"

func main() {
	cmd.Execute()
}
