/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/goflash/InputParameters"
	"github.com/notargets/goflash/composite"
	"github.com/notargets/goflash/pengrobinson"
	"github.com/notargets/goflash/types"
	"github.com/notargets/goflash/utils"
)

type ModelFlash struct {
	InputFile string
	Profile   string
	Verbose   bool
}

// FlashCmd represents the flash command
var FlashCmd = &cobra.Command{
	Use:   "flash",
	Short: "Isothermal or isenthalpic flash of a multicomponent feed",
	Long: `
Solves the unified equilibrium formulation with the semi-smooth Newton-min
method, then computes saturations and the specific enthalpy of the mixture,

goflash flash -I case.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		mf := &ModelFlash{}
		if mf.InputFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		mf.Profile = viper.GetString("profile")
		mf.Verbose = viper.GetBool("verbose")
		fc := processInput(mf)
		switch mf.Profile {
		case "cpu":
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		case "mem":
			defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
		case "":
		default:
			fmt.Printf("error: unknown profile type %s, use cpu or mem\n", mf.Profile)
			os.Exit(1)
		}
		c, success, err := RunFlash(fc)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		PrintResult(c)
		if !success {
			os.Exit(1)
		}
	},
}

func processInput(mf *ModelFlash) (fc *InputParameters.FlashCase) {
	var (
		err error
	)
	if len(mf.InputFile) == 0 {
		err = fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Propane Butane"
FlashType: pt # Can be "ph", then Temperature is the initial guess
Pressure: [0.5]
Temperature: [300.]
InitialGuess: feed # Can be "uniform" or "iterate"
Components:
  - Name: propane
  - Name: butane
Feed:
  propane: [0.5]
  butane: [0.5]
Phases: # The first phase is the reference phase
  - Name: L
    Model: pr-liquid
  - Name: G
    Model: pr-gas
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	if fc, err = ReadFlashCase(mf.InputFile); err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	if mf.Verbose {
		fc.Verbose = true
	}
	fc.Print()
	return
}

// ReadFlashCase reads and validates a YAML flash case
func ReadFlashCase(path string) (fc *InputParameters.FlashCase, err error) {
	var data []byte
	if data, err = os.ReadFile(path); err != nil {
		return
	}
	fc = &InputParameters.FlashCase{}
	err = fc.Parse(data)
	return
}

func init() {
	rootCmd.AddCommand(FlashCmd)
	FlashCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for the flash case:\n\t- state and feed\n\t- components and phases")
	FlashCmd.Flags().StringP("profile", "p", "", "write a profile to the current directory, cpu or mem")
	FlashCmd.Flags().BoolP("verbose", "v", false, "print the residual of each Newton iteration")
	_ = viper.BindPFlag("profile", FlashCmd.Flags().Lookup("profile"))
	_ = viper.BindPFlag("verbose", FlashCmd.Flags().Lookup("verbose"))
}

// NewFlashComposition builds and initializes a composition with the state and feed of the case
func NewFlashComposition(fc *InputParameters.FlashCase) (c *composite.Composition, err error) {
	var (
		opts   = []composite.Option{composite.WithVerbose(fc.Verbose)}
		prOpts []pengrobinson.Option
	)
	if fc.Tolerance > 0 {
		opts = append(opts, composite.WithTolerance(fc.Tolerance))
	}
	if fc.MaxIterations > 0 {
		opts = append(opts, composite.WithMaxIter(fc.MaxIterations))
	}
	if fc.Smoothing > 0 {
		prOpts = append(prOpts, pengrobinson.WithSmoothing(fc.Smoothing))
	}
	c = composite.NewComposition(fc.NCells, opts...)
	for _, ph := range fc.Phases {
		var (
			kind  types.PhaseModel
			model composite.PhaseModel
		)
		if kind, err = types.NewPhaseModel(ph.Model); err != nil {
			return
		}
		if model, err = composite.NewPhaseModel(kind, prOpts...); err != nil {
			return
		}
		if _, err = c.AddPhase(ph.Name, model); err != nil {
			return
		}
	}
	cs, err := fc.GetComponents()
	if err != nil {
		return
	}
	if err = c.AddComponent(cs...); err != nil {
		return
	}
	if err = c.Initialize(); err != nil {
		return
	}
	var h []float64
	if fc.GetFlashType() == types.FLASH_PH {
		h = fc.Enthalpy
	}
	if err = c.SetState(fc.Pressure, fc.Temperature, h); err != nil {
		return
	}
	for _, comp := range cs {
		if err = c.SetFeed(comp, fc.Feed[comp.Name]...); err != nil {
			return
		}
	}
	return
}

/*
RunFlash performs the flash of the case. On success the fractions are post
processed and the saturations are computed, for the isothermal flash the
specific enthalpy of the mixture as well.
*/
func RunFlash(fc *InputParameters.FlashCase) (c *composite.Composition, success bool, err error) {
	if c, err = NewFlashComposition(fc); err != nil {
		return
	}
	ft := fc.GetFlashType()
	switch ft {
	case types.FLASH_PT:
		success = c.IsothermalFlash(true, fc.GetInitialGuess())
	case types.FLASH_PH:
		success = c.IsenthalpicFlash(true, fc.GetInitialGuess())
	}
	if fc.Verbose {
		c.PrintLastFlash()
		fmt.Println(utils.GetMemUsage())
	}
	if !success {
		return
	}
	if err = c.PostProcessFractions(true); err != nil {
		return
	}
	if err = c.EvaluateSaturations(true); err != nil {
		return
	}
	if ft == types.FLASH_PT {
		err = c.EvaluateSpecificEnthalpy(true)
	}
	return
}

func PrintResult(c *composite.Composition) {
	fmt.Println(c)
	for k := 0; k < c.NCells; k++ {
		fmt.Printf("Cell[%d]: p = %8.5f, T = %8.5f, h = %8.5f\n", k,
			value(c, c.PName(), k), value(c, c.TName(), k), value(c, c.HName(), k))
		for _, ph := range c.Phases() {
			fmt.Printf("\t%s: y = %8.5f, s = %8.5f", ph.Name,
				value(c, ph.FractionName(), k), value(c, ph.SaturationName(), k))
			for _, comp := range ph.Components() {
				fmt.Printf(", x_%s = %8.5f", comp.Name, value(c, ph.NormalizedFractionOfComponentName(comp), k))
			}
			fmt.Println()
		}
	}
}

func value(c *composite.Composition, name string, k int) float64 {
	return c.System().MustGetVarValues(name, true)[k]
}
