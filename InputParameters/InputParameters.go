package InputParameters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ghodss/yaml"

	"github.com/notargets/goflash/component"
	"github.com/notargets/goflash/types"
)

// ComponentInput names a library component, or defines a new one when the critical data is given
type ComponentInput struct {
	Name      string  `json:"Name"`
	CAS       string  `json:"CAS"`
	Pc        float64 `json:"Pc"` // [MPa]
	Tc        float64 `json:"Tc"` // [K]
	Omega     float64 `json:"Omega"`
	MolarMass float64 `json:"MolarMass"` // [kg / mol]
	Cp        float64 `json:"Cp"`        // [kJ / K mol]
}

type PhaseInput struct {
	Name  string `json:"Name"`
	Model string `json:"Model"`
}

// Parameters obtained from the YAML input file, ghodss/yaml decodes through the json tags
type FlashCase struct {
	Title         string               `json:"Title"`
	FlashType     string               `json:"FlashType"`
	Pressure      []float64            `json:"Pressure"`    // [MPa]
	Temperature   []float64            `json:"Temperature"` // [K], initial guess for the isenthalpic flash
	Enthalpy      []float64            `json:"Enthalpy"`    // [kJ / mol]
	Feed          map[string][]float64 `json:"Feed"`        // First key is the component name
	Components    []ComponentInput     `json:"Components"`
	Phases        []PhaseInput         `json:"Phases"` // The first phase is the reference phase
	NCells        int                  `json:"NCells"`
	Tolerance     float64              `json:"Tolerance"`
	MaxIterations int                  `json:"MaxIterations"`
	InitialGuess  string               `json:"InitialGuess"`
	Smoothing     float64              `json:"Smoothing"`
	Verbose       bool                 `json:"Verbose"`
}

func (fc *FlashCase) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, fc); err != nil {
		return
	}
	fc.setDefaults()
	return fc.Validate()
}

func (fc *FlashCase) setDefaults() {
	if len(fc.FlashType) == 0 {
		fc.FlashType = "pt"
	}
	if len(fc.InitialGuess) == 0 {
		fc.InitialGuess = "feed"
	}
	if fc.NCells == 0 {
		fc.NCells = 1
		for _, v := range [][]float64{fc.Pressure, fc.Temperature, fc.Enthalpy} {
			if len(v) > fc.NCells {
				fc.NCells = len(v)
			}
		}
	}
}

// Validate checks the case is complete, a single value of a per cell quantity applies to all cells
func (fc *FlashCase) Validate() (err error) {
	var ft types.FlashType
	if ft, err = types.NewFlashType(fc.FlashType); err != nil {
		return
	}
	if _, err = types.NewInitialGuess(fc.InitialGuess); err != nil {
		return
	}
	if len(fc.Components) == 0 {
		return types.NewError(types.ErrConfiguration, "no components")
	}
	if len(fc.Phases) < 2 {
		return types.NewError(types.ErrConfiguration, "at least two phases are required")
	}
	for _, ph := range fc.Phases {
		if _, err = types.NewPhaseModel(ph.Model); err != nil {
			return
		}
	}
	check := func(label string, v []float64) error {
		if len(v) != 1 && len(v) != fc.NCells {
			return types.NewError(types.ErrDimensionMismatch,
				fmt.Sprintf("%s has %d values for %d cells", label, len(v), fc.NCells))
		}
		return nil
	}
	if err = check("Pressure", fc.Pressure); err != nil {
		return
	}
	if err = check("Temperature", fc.Temperature); err != nil {
		return
	}
	if ft == types.FLASH_PH {
		if err = check("Enthalpy", fc.Enthalpy); err != nil {
			return
		}
	}
	for _, ci := range fc.Components {
		z, ok := fc.Feed[ci.Name]
		if !ok {
			return types.NewError(types.ErrConfiguration, "no feed for component "+ci.Name)
		}
		if err = check("Feed "+ci.Name, z); err != nil {
			return
		}
	}
	return
}

func (fc *FlashCase) GetFlashType() types.FlashType {
	ft, _ := types.NewFlashType(fc.FlashType)
	return ft
}

func (fc *FlashCase) GetInitialGuess() types.InitialGuess {
	ig, _ := types.NewInitialGuess(fc.InitialGuess)
	return ig
}

/*
GetComponents resolves the component inputs. A component without critical data
is looked up in the library by name, otherwise it is created from the input.
*/
func (fc *FlashCase) GetComponents() (cs []*component.Component, err error) {
	cs = make([]*component.Component, len(fc.Components))
	for i, ci := range fc.Components {
		if ci.Pc == 0 && ci.Tc == 0 {
			lib, ok := component.LibraryNameMap[strings.ToLower(ci.Name)]
			if !ok {
				err = types.NewError(types.ErrConfiguration, "unknown component "+ci.Name)
				return
			}
			// The feed map and the variable names use the input name
			c := *lib
			c.Name = ci.Name
			cs[i] = &c
			continue
		}
		if ci.Pc <= 0 || ci.Tc <= 0 {
			err = types.NewError(types.ErrConfiguration, "component "+ci.Name+" needs positive Pc and Tc")
			return
		}
		cs[i] = component.NewComponent(ci.Name, ci.CAS, ci.MolarMass, ci.Pc, ci.Tc, ci.Omega)
		if ci.Cp != 0 {
			cs[i].Cp = ci.Cp
		}
	}
	return
}

func (fc *FlashCase) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", fc.Title)
	fmt.Printf("[%s]\t\t= Flash Type\n", fc.GetFlashType())
	fmt.Printf("[%s]\t\t\t= Initial Guess\n", fc.InitialGuess)
	fmt.Printf("[%d]\t\t\t\t= Number of Cells\n", fc.NCells)
	fmt.Printf("%8.5g\t\t= Tolerance\n", fc.Tolerance)
	fmt.Printf("[%d]\t\t\t\t= Max Iterations\n", fc.MaxIterations)
	fmt.Printf("%v\t\t\t= Pressure\n", fc.Pressure)
	fmt.Printf("%v\t\t\t= Temperature\n", fc.Temperature)
	if fc.GetFlashType() == types.FLASH_PH {
		fmt.Printf("%v\t\t\t= Enthalpy\n", fc.Enthalpy)
	}
	for _, ph := range fc.Phases {
		fmt.Printf("Phase[%s] = %s\n", ph.Name, ph.Model)
	}
	keys := make([]string, len(fc.Feed))
	i := 0
	for k := range fc.Feed {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("Feed[%s] = %v\n", key, fc.Feed[key])
	}
}
