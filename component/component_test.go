package component

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/goflash/ad"
)

func TestComponent(t *testing.T) {
	{ // Test reference values
		assert.InDelta(t, 4*R_IDEAL, CP_REF, 1e-15)
		assert.InDelta(t, 3*R_IDEAL, CV_REF, 1e-15)
		assert.InDelta(t, R_IDEAL*T_REF, H_REF, 1e-14)
		assert.InDelta(t, CP_REF-CV_REF, R_IDEAL, 1e-15)
	}
	{ // Test ideal enthalpy and its temperature derivative
		T := ad.NewVariable([]float64{T_REF, 300}, 0, 1)
		h := Methane.IdealEnthalpy(T)
		assert.InDelta(t, H_REF, h.Val[0], 1e-15)
		assert.InDelta(t, H_REF+CP_REF*(300-T_REF), h.Val[1], 1e-14)
		assert.Equal(t, []float64{CP_REF, CP_REF}, h.Derivative(0))
	}
	{ // Test Wilson correlation, psat(Tc) = pc and K = psat/p
		c := NewComponent("C3", "", 0.044, 4.248, 369.83, 0.152)
		T := ad.NewVariable([]float64{369.83, 300}, 0, 1)
		psat := c.WilsonPsat(T)
		assert.InDelta(t, 4.248, psat.Val[0], 1e-13)
		expected := 4.248 * math.Exp(5.373*1.152*(1-369.83/300))
		assert.InDelta(t, expected, psat.Val[1], 1e-13)
		// d psat / dT = psat 5.373 (1 + omega) Tc / T^2
		assert.InDelta(t, expected*5.373*1.152*369.83/(300*300), psat.Derivative(0)[1], 1e-12)
		assert.InDelta(t, expected/0.5, c.WilsonK(0.5, 300), 1e-12)
	}
	{ // Test BIP table symmetry and custom BIPs
		k1, ok := LoadBIP(CO2.CAS, Methane.CAS)
		assert.True(t, ok)
		k2, _ := LoadBIP(Methane.CAS, CO2.CAS)
		assert.Equal(t, k1, k2)
		k, ok := LoadBIP(Methane.CAS, Propane.CAS)
		assert.False(t, ok)
		assert.Equal(t, 0., k)

		custom := func(T ad.Array) (ad.Array, ad.Array) {
			return T.Scale(1e-4), ad.Scalar(T.Len(), 1e-4)
		}
		c := Methane.WithBIP(CO2.CAS, custom)
		_, ok = Methane.GetBIP(CO2.CAS)
		assert.False(t, ok)
		f, ok := c.GetBIP(CO2.CAS)
		require.True(t, ok)
		kT, dkT := f(ad.Scalar(1, 300))
		assert.InDelta(t, 0.03, kT.Val[0], 1e-15)
		assert.InDelta(t, 1e-4, dkT.Val[0], 1e-15)
		assert.Equal(t, Methane.Tc, c.Tc)
	}
	{ // Test compound solutes
		brine := NewCompound(Water)
		brine.AddSolute(NaCl, 2)
		brine.AddSolute(NaCl, 2)
		assert.Len(t, brine.Solutes(), 1)
		require.NoError(t, brine.SetSoluteFraction("NaCl", []float64{0, 0.1}))
		assert.Error(t, brine.SetSoluteFraction("KCl", []float64{0, 0.1}))
		assert.Error(t, brine.SetSoluteFraction("NaCl", []float64{0.1}))
		f, ok := brine.SoluteFraction("NaCl")
		require.True(t, ok)
		assert.Equal(t, []float64{0, 0.1}, f)
		m, ok := brine.MolalityOf("NaCl")
		require.True(t, ok)
		assert.InDelta(t, 0.1/(0.9*Water.MolarMass), m[1], 1e-12)
		assert.Equal(t, "H2O", brine.Name)
		assert.Same(t, Water, LibraryNameMap["water"])
	}
}
