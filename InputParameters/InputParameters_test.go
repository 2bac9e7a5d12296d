package InputParameters

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/goflash/component"
	"github.com/notargets/goflash/types"
)

func TestFlashCase(t *testing.T) {
	{ // Test parsing a two cell isenthalpic case
		fileInput := []byte(`
Title: Test Case
FlashType: ph
Pressure: [0.5]
Temperature: [290., 310.]
Enthalpy: [2.3, 2.4]
InitialGuess: iterate
Components:
  - Name: propane
  - Name: X1
    CAS: "000-00-0"
    Pc: 4.0
    Tc: 400.
    Omega: 0.1
    MolarMass: 0.05
    Cp: 0.04
Feed:
  propane: [0.4]
  X1: [0.6, 0.6]
Phases:
  - Name: L
    Model: incompressible
  - Name: G
    Model: ideal-gas
`)
		var fc FlashCase
		require.NoError(t, fc.Parse(fileInput))
		assert.Equal(t, "Test Case", fc.Title)
		assert.Equal(t, 2, fc.NCells)
		assert.Equal(t, types.FLASH_PH, fc.GetFlashType())
		assert.Equal(t, types.GUESS_ITERATE, fc.GetInitialGuess())
		assert.Equal(t, []float64{0.6, 0.6}, fc.Feed["X1"])
		assert.Equal(t, "ideal-gas", fc.Phases[1].Model)
		cs, err := fc.GetComponents()
		require.NoError(t, err)
		require.Equal(t, 2, len(cs))
		assert.Equal(t, "propane", cs[0].Name)
		assert.Equal(t, component.Propane.CAS, cs[0].CAS)
		assert.Equal(t, component.Propane.Tc, cs[0].Tc)
		// The library entry keeps its name
		assert.Equal(t, "C3H8", component.Propane.Name)
		assert.Equal(t, 400., cs[1].Tc)
		assert.Equal(t, 0.04, cs[1].Cp)
		fc.Print()
	}
	{ // Test defaults
		var fc FlashCase
		require.NoError(t, fc.Parse([]byte(`
Pressure: [1.]
Temperature: [300.]
Components: [{Name: CO2}]
Feed: {CO2: [1.]}
Phases: [{Name: L, Model: pr-liquid}, {Name: G, Model: pr-gas}]
`)))
		assert.Equal(t, types.FLASH_PT, fc.GetFlashType())
		assert.Equal(t, types.GUESS_FEED, fc.GetInitialGuess())
		assert.Equal(t, 1, fc.NCells)
	}
	{ // Test malformed cases
		for _, input := range []string{
			// unknown flash type
			"FlashType: px\nPressure: [1.]\nTemperature: [300.]\nComponents: [{Name: CO2}]\nFeed: {CO2: [1.]}\nPhases: [{Name: L, Model: pr-liquid}, {Name: G, Model: pr-gas}]",
			// one phase
			"Pressure: [1.]\nTemperature: [300.]\nComponents: [{Name: CO2}]\nFeed: {CO2: [1.]}\nPhases: [{Name: L, Model: pr-liquid}]",
			// missing feed
			"Pressure: [1.]\nTemperature: [300.]\nComponents: [{Name: CO2}]\nPhases: [{Name: L, Model: pr-liquid}, {Name: G, Model: pr-gas}]",
			// unknown phase model
			"Pressure: [1.]\nTemperature: [300.]\nComponents: [{Name: CO2}]\nFeed: {CO2: [1.]}\nPhases: [{Name: L, Model: vdw}, {Name: G, Model: pr-gas}]",
		} {
			var fc FlashCase
			err := fc.Parse([]byte(input))
			assert.True(t, errors.Is(err, types.ErrConfiguration), input)
		}
		var fc FlashCase
		err := fc.Parse([]byte("NCells: 3\nPressure: [1., 2.]\nTemperature: [300.]\nComponents: [{Name: CO2}]\nFeed: {CO2: [1.]}\nPhases: [{Name: L, Model: pr-liquid}, {Name: G, Model: pr-gas}]"))
		assert.True(t, errors.Is(err, types.ErrDimensionMismatch))
	}
	{ // Test unknown library components
		fc := FlashCase{Components: []ComponentInput{{Name: "unobtainium"}}}
		_, err := fc.GetComponents()
		assert.True(t, errors.Is(err, types.ErrConfiguration))
		fc = FlashCase{Components: []ComponentInput{{Name: "X", Pc: -1, Tc: 300}}}
		_, err = fc.GetComponents()
		assert.True(t, errors.Is(err, types.ErrConfiguration))
	}
}
