package types

import (
	"fmt"
	"strings"
)

type FlashType uint8

const (
	FLASH_PT FlashType = iota // isothermal: p, T fixed
	FLASH_PH                  // isenthalpic: p, h fixed, T is unknown
)

var FlashTypeNameMap = map[string]FlashType{
	"pt":          FLASH_PT,
	"isothermal":  FLASH_PT,
	"ph":          FLASH_PH,
	"isenthalpic": FLASH_PH,
}

func (ft FlashType) String() string {
	switch ft {
	case FLASH_PT:
		return "isothermal"
	case FLASH_PH:
		return "isenthalpic"
	}
	return fmt.Sprintf("FlashType(%d)", uint8(ft))
}

func NewFlashType(label string) (ft FlashType, err error) {
	var ok bool
	if ft, ok = FlashTypeNameMap[strings.ToLower(label)]; !ok {
		err = &FlashError{Op: "flash type " + label, Err: ErrConfiguration}
	}
	return
}

type InitialGuess uint8

const (
	GUESS_ITERATE InitialGuess = iota // keep the current iterate
	GUESS_UNIFORM                     // 1/num_phases, 1/num_components
	GUESS_FEED                        // Wilson K-values and Rachford-Rice
)

var InitialGuessNameMap = map[string]InitialGuess{
	"iterate": GUESS_ITERATE,
	"uniform": GUESS_UNIFORM,
	"feed":    GUESS_FEED,
	"wilson":  GUESS_FEED,
}

func (ig InitialGuess) String() string {
	switch ig {
	case GUESS_ITERATE:
		return "iterate"
	case GUESS_UNIFORM:
		return "uniform"
	case GUESS_FEED:
		return "feed"
	}
	return fmt.Sprintf("InitialGuess(%d)", uint8(ig))
}

func NewInitialGuess(label string) (ig InitialGuess, err error) {
	var ok bool
	if ig, ok = InitialGuessNameMap[strings.ToLower(label)]; !ok {
		err = &FlashError{Op: "initial guess " + label, Err: ErrConfiguration}
	}
	return
}

type PhaseModel uint8

const (
	PHASE_INCOMPRESSIBLE PhaseModel = iota
	PHASE_IDEALGAS
	PHASE_PR_LIQUID
	PHASE_PR_GAS
)

var PhaseModelNameMap = map[string]PhaseModel{
	"incompressible": PHASE_INCOMPRESSIBLE,
	"idealgas":       PHASE_IDEALGAS,
	"ideal-gas":      PHASE_IDEALGAS,
	"prliquid":       PHASE_PR_LIQUID,
	"pr-liquid":      PHASE_PR_LIQUID,
	"prgas":          PHASE_PR_GAS,
	"pr-gas":         PHASE_PR_GAS,
}

func (pm PhaseModel) String() string {
	switch pm {
	case PHASE_INCOMPRESSIBLE:
		return "incompressible"
	case PHASE_IDEALGAS:
		return "ideal-gas"
	case PHASE_PR_LIQUID:
		return "pr-liquid"
	case PHASE_PR_GAS:
		return "pr-gas"
	}
	return fmt.Sprintf("PhaseModel(%d)", uint8(pm))
}

func NewPhaseModel(label string) (pm PhaseModel, err error) {
	var ok bool
	if pm, ok = PhaseModelNameMap[strings.ToLower(label)]; !ok {
		err = &FlashError{Op: "phase model " + label, Err: ErrConfiguration}
	}
	return
}

// RootRegion tags a cell by the number of distinct real roots of the
// compressibility polynomial.
type RootRegion uint8

const (
	REGION_ONE RootRegion = iota
	REGION_THREE
	REGION_DOUBLE
	REGION_TRIPLE
)

func (rr RootRegion) String() string {
	switch rr {
	case REGION_ONE:
		return "one-root"
	case REGION_THREE:
		return "three-root"
	case REGION_DOUBLE:
		return "double-root"
	case REGION_TRIPLE:
		return "triple-root"
	}
	return fmt.Sprintf("RootRegion(%d)", uint8(rr))
}

type MixingRule uint8

const (
	MIXING_VDW MixingRule = iota
	MIXING_UNKNOWN
)

var MixingRuleNameMap = map[string]MixingRule{
	"vdw":           MIXING_VDW,
	"vanderwaals":   MIXING_VDW,
	"van-der-waals": MIXING_VDW,
}

func (mr MixingRule) String() string {
	switch mr {
	case MIXING_VDW:
		return "VdW"
	}
	return fmt.Sprintf("MixingRule(%d)", uint8(mr))
}

func NewMixingRule(label string) (mr MixingRule, err error) {
	var ok bool
	if mr, ok = MixingRuleNameMap[strings.ToLower(label)]; !ok {
		mr = MIXING_UNKNOWN
		err = &FlashError{Op: "mixing rule " + label, Err: ErrConfiguration}
	}
	return
}
