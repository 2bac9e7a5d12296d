package types

import (
	"fmt"
	"math"
)

/*
PairKey is an always positive number that stores a pair of component indices in a way that can be compared.
A pair between components [4] and [0] will always be stored as [0,4], in the ascending order of the index values
*/
type PairKey uint64

func NewPairKey(comps [2]int) (packed PairKey) {
	// This packs two index coordinates into two 32 bit unsigned integers to act as a hash
	var (
		limit = math.MaxUint32
	)
	for _, c := range comps {
		if c < 0 || c > limit {
			panic(fmt.Errorf("unable to pack two ints into a uint64, have %d and %d as inputs",
				comps[0], comps[1]))
		}
	}
	var i1, i2 int
	if comps[0] <= comps[1] {
		i1, i2 = comps[0], comps[1]
	} else {
		i1, i2 = comps[1], comps[0]
	}
	packed = PairKey(i1 + i2<<32)
	return
}

// GetIndices returns the pair in ascending order
func (pk PairKey) GetIndices() (comps [2]int) {
	comps[1] = int(pk >> 32)
	comps[0] = int(pk - PairKey(comps[1])<<32)
	return
}
