package pengrobinson

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/notargets/goflash/ad"
	"github.com/notargets/goflash/component"
	"github.com/notargets/goflash/types"
)

func roots(t *testing.T, e *EoS, A, B ad.Array) (Z, ZOther ad.Array, cl Classification) {
	var err error
	Z, ZOther, cl, err = e.ComputeRoots(A, B)
	require.NoError(t, err)
	return
}

func TestRoots(t *testing.T) {
	{ // Test the critical constants are a triple root of the polynomial
		assert.InDelta(t, 0.45723552892138218, A_CRIT, 1e-12)
		assert.InDelta(t, 0.077796073903888455, B_CRIT, 1e-12)
		assert.InDelta(t, 0.30740130869870386, Z_CRIT, 1e-12)
		assert.InDelta(t, 0, ZPolynomial(Z_CRIT, A_CRIT, B_CRIT), 1e-14)
		assert.InDelta(t, (1-B_CRIT)/3, Z_CRIT, 1e-12)
	}
	{ // Test the critical point collapses both roots
		for _, gaslike := range []bool{true, false} {
			e := NewEoS(gaslike)
			Z, ZOther, cl := roots(t, e, ad.Scalar(1, A_CRIT), ad.Scalar(1, B_CRIT))
			assert.Equal(t, types.REGION_TRIPLE, cl.Regions[0])
			assert.InDelta(t, Z_CRIT, Z.Val[0], 1e-12)
			assert.InDelta(t, Z_CRIT, ZOther.Val[0], 1e-12)
		}
	}
	{ // Test the zero point is a double root, the liquid root is lifted above B
		e := NewEoS(false)
		Z, ZOther, cl := roots(t, e, ad.Scalar(1, 0), ad.Scalar(1, 0))
		assert.Equal(t, types.REGION_DOUBLE, cl.Regions[0])
		assert.Greater(t, Z.Val[0], 0.)
		assert.InDelta(t, 0, Z.Val[0], 1e-13)
		assert.InDelta(t, 1, ZOther.Val[0], 1e-14)
	}
	{ // Test regions partition random samples and real roots solve the polynomial
		var (
			n   = 2000
			rnd = rand.New(rand.NewSource(17))
			A   = make([]float64, n)
			B   = make([]float64, n)
		)
		for k := 0; k < n; k++ {
			A[k] = 1.2 * rnd.Float64()
			B[k] = 0.25 * rnd.Float64()
		}
		e := NewEoS(true, WithParallelDegree(4))
		Z, ZOther, cl := roots(t, e, ad.NewConstant(A), ad.NewConstant(B))
		seen := make([]int, n)
		total := 0
		for reg, set := range cl.Sets {
			total += len(set)
			for _, k := range set {
				seen[k]++
				assert.Equal(t, types.RootRegion(reg), cl.Regions[k])
			}
		}
		assert.Equal(t, n, total)
		for k := range seen {
			assert.Equal(t, 1, seen[k])
		}
		assert.NotEmpty(t, cl.Sets[types.REGION_ONE])
		assert.NotEmpty(t, cl.Sets[types.REGION_THREE])
		ext := cl.IsExtended(true)
		for _, k := range cl.Sets[types.REGION_ONE] {
			zr := Z.Val[k]
			if ext[k] {
				zr = ZOther.Val[k]
			}
			if zr <= B[k]+e.Eps {
				continue
			}
			assert.InDeltaf(t, 0, ZPolynomial(zr, A[k], B[k]), 1e-9, "cell %d: A = %v, B = %v", k, A[k], B[k])
		}
		for _, k := range cl.Sets[types.REGION_THREE] {
			// gas root is the largest and exceeds B
			assert.Greater(t, Z.Val[k], B[k])
			assert.InDeltaf(t, 0, ZPolynomial(Z.Val[k], A[k], B[k]), 1e-9, "cell %d: A = %v, B = %v", k, A[k], B[k])
			assert.LessOrEqual(t, ZOther.Val[k], Z.Val[k])
			if ZOther.Val[k] > B[k]+e.Eps {
				assert.InDelta(t, 0, ZPolynomial(ZOther.Val[k], A[k], B[k]), 1e-9)
				// the roots sum to 1-B
				zMid := 1 - B[k] - ZOther.Val[k] - Z.Val[k]
				tol := 1e-9 * math.Max(1, Z.Val[k])
				assert.LessOrEqualf(t, ZOther.Val[k], zMid+tol, "cell %d: A = %v, B = %v", k, A[k], B[k])
				assert.LessOrEqualf(t, zMid, Z.Val[k]+tol, "cell %d: A = %v, B = %v", k, A[k], B[k])
				assert.InDelta(t, 0, ZPolynomial(zMid, A[k], B[k]), 1e-9)
			}
		}
		for k := 0; k < n; k++ {
			assert.Greater(t, ZOther.Val[k], B[k])
		}
	}
	{ // Test the extension replaces the liquid root on the gas side of the pseudo-critical line
		A, B := 1.0, 0.3
		require.True(t, B > B_CRIT+pseudoCriticalSlope*(A-A_CRIT))
		gas := NewEoS(true)
		liq := NewEoS(false)
		ZG, ZL1, clG := roots(t, gas, ad.Scalar(1, A), ad.Scalar(1, B))
		ZL, ZG1, clL := roots(t, liq, ad.Scalar(1, A), ad.Scalar(1, B))
		assert.Equal(t, types.REGION_ONE, clG.Regions[0])
		assert.Equal(t, ZG.Val[0], ZG1.Val[0])
		assert.Equal(t, ZL.Val[0], ZL1.Val[0])
		assert.Equal(t, []bool{false}, clG.IsExtended(true))
		assert.Equal(t, []bool{true}, clL.IsExtended(false))
		assert.InDelta(t, 0, ZPolynomial(ZG.Val[0], A, B), 1e-12)
		w := (1-B-ZG.Val[0])/2 + B + B_CRIT
		assert.InDelta(t, w, ZL.Val[0], 1e-14)
	}
	{ // Test smoothing blends roots only near the root crossings
		// z3 close to z2 at the upper boundary of the three-root region
		var (
			B     = 0.02
			cells []float64
		)
		for _, A := range []float64{0.05, 0.1, 0.15, 0.2, 0.25, 0.3} {
			cells = append(cells, A)
		}
		Bs := make([]float64, len(cells))
		for k := range Bs {
			Bs[k] = B
		}
		plain := NewEoS(true)
		smooth := NewEoS(true, WithSmoothing(0.25))
		Zp, _, cl := roots(t, plain, ad.NewConstant(cells), ad.NewConstant(Bs))
		Zs, ZsL, _ := roots(t, smooth, ad.NewConstant(cells), ad.NewConstant(Bs))
		for k, reg := range cl.Regions {
			if reg != types.REGION_THREE {
				assert.Equal(t, Zp.Val[k], Zs.Val[k])
				continue
			}
			assert.LessOrEqual(t, ZsL.Val[k], Zs.Val[k]+1e-12)
			assert.LessOrEqual(t, Zs.Val[k], Zp.Val[k]+1e-14)
		}
		assert.Equal(t, 0., gasWeight(0.5, 0.25))
		assert.Equal(t, 1., gasWeight(0.8, 0.25))
		assert.InDelta(t, 0.5, gasWeight(0.625, 0.25), 1e-14)
		assert.Equal(t, 1., liquidWeight(0.1, 0.25))
		assert.Equal(t, 0., liquidWeight(0.6, 0.25))
		assert.InDelta(t, 0.5, liquidWeight(0.375, 0.25), 1e-14)
	}
}

func TestCompute(t *testing.T) {
	var (
		methane = component.NewComponent("CH4", "74-82-8", 0.0160425, 4.599, 190.56, 0.0115)
		propane = component.NewComponent("C3H8", "74-98-6", 0.0440956, 4.248, 369.83, 0.1523)
	)
	{ // Test configuration errors
		e := NewEoS(false, WithMixingRule(types.MIXING_UNKNOWN))
		err := e.SetComponents([]*component.Component{methane})
		assert.True(t, errors.Is(err, types.ErrConfiguration))

		e = NewEoS(false)
		_, err = e.Compute(ad.Scalar(1, 1), ad.Scalar(1, 300), nil)
		assert.True(t, errors.Is(err, types.ErrConfiguration))

		require.NoError(t, e.SetComponents([]*component.Component{methane, propane}))
		_, err = e.Compute(ad.Scalar(1, 1), ad.Scalar(1, 300), []ad.Array{ad.Scalar(1, 1)})
		assert.True(t, errors.Is(err, types.ErrDimensionMismatch))
	}
	{ // Test non-finite inputs are reported as errors
		e := NewEoS(false)
		require.NoError(t, e.SetComponents([]*component.Component{methane, propane}))
		// fractions of a phase without any extended fraction are 0/0
		nan := ad.Scalar(2, 0).Div(ad.Scalar(2, 0))
		_, err := e.Compute(ad.Scalar(2, 1), ad.Scalar(2, 300), []ad.Array{nan, nan})
		assert.True(t, errors.Is(err, types.ErrNonFinite))
		// a diverged temperature iterate
		_, err = e.Compute(ad.Scalar(1, 1), ad.Scalar(1, -50), []ad.Array{ad.Scalar(1, 0.5), ad.Scalar(1, 0.5)})
		assert.True(t, errors.Is(err, types.ErrNonFinite))
		_, err = e.Classify([]float64{0.1, math.Inf(1)}, []float64{0.01, 0.01})
		assert.True(t, errors.Is(err, types.ErrNonFinite))
		_, _, _, err = e.ComputeRoots(ad.Scalar(1, math.NaN()), ad.Scalar(1, 0.01))
		assert.True(t, errors.Is(err, types.ErrNonFinite))
	}
	{ // Test the ideal gas limit at low pressure
		e := NewEoS(true)
		require.NoError(t, e.SetComponents([]*component.Component{methane}))
		p, T := 1e-3, 300.
		props, err := e.Compute(ad.Scalar(1, p), ad.Scalar(1, T), []ad.Array{ad.Scalar(1, 1)})
		require.NoError(t, err)
		assert.InDelta(t, 1, props.Z.Val[0], 1e-3)
		assert.InDelta(t, 1, props.Phis[0].Val[0], 1e-3)
		assert.InDelta(t, p/(R*T)*1e3, props.Rho.Val[0], 1e-3)
		assert.InDelta(t, props.Rho.Val[0]*methane.MolarMass, props.RhoMass.Val[0], 1e-12)
		assert.InDelta(t, 1/props.Rho.Val[0], props.V.Val[0], 1e-12)
		assert.InDelta(t, 0, props.HDep.Val[0], 1e-3)
		assert.Equal(t, []types.RootRegion{types.REGION_ONE}, props.Regions)
	}
	{ // Test derivatives against finite differences in temperature and fractions
		e := NewEoS(false, WithParallelDegree(2))
		require.NoError(t, e.SetComponents([]*component.Component{methane, propane}))
		var (
			p  = 3.
			T0 = []float64{250, 300}
			x0 = []float64{0.25, 0.4}
		)
		T := ad.NewVariable(T0, 0, 3)
		x1 := ad.NewVariable(x0, 1, 3)
		x2 := ad.NewVariable([]float64{1 - x0[0], 1 - x0[1]}, 2, 3)
		props, err := e.Compute(ad.Scalar(2, p), T, []ad.Array{x1, x2})
		require.NoError(t, err)
		eval := func(T, x1, x2 float64) Properties {
			pr, err := e.Compute(ad.Scalar(1, p), ad.Scalar(1, T), []ad.Array{ad.Scalar(1, x1), ad.Scalar(1, x2)})
			require.NoError(t, err)
			return pr
		}
		for k := range T0 {
			quantities := map[string]func(pr Properties) float64{
				"h":    func(pr Properties) float64 { return pr.H.Val[0] },
				"z":    func(pr Properties) float64 { return pr.Z.Val[0] },
				"phi1": func(pr Properties) float64 { return pr.Phis[0].Val[0] },
				"phi2": func(pr Properties) float64 { return pr.Phis[1].Val[0] },
			}
			adRows := map[string][]float64{
				"h":    props.H.Row(k, 3),
				"z":    props.Z.Row(k, 3),
				"phi1": props.Phis[0].Row(k, 3),
				"phi2": props.Phis[1].Row(k, 3),
			}
			for name, q := range quantities {
				grad := make([]float64, 3)
				fd.Gradient(grad, func(v []float64) float64 {
					return q(eval(v[0], v[1], v[2]))
				}, []float64{T0[k], x0[k], 1 - x0[k]}, &fd.Settings{Formula: fd.Central})
				for j := range grad {
					assert.InDeltaf(t, grad[j], adRows[name][j], 1e-5*math.Max(1, math.Abs(grad[j])),
						"%s derivative %d in cell %d", name, j, k)
				}
			}
		}
	}
	{ // Test a custom BIP of the first component takes precedence
		var (
			low = func(T ad.Array) (ad.Array, ad.Array) {
				return ad.Scalar(T.Len(), 0.1), ad.Scalar(T.Len(), 0)
			}
			high = func(T ad.Array) (ad.Array, ad.Array) {
				return ad.Scalar(T.Len(), 0.5), ad.Scalar(T.Len(), 0)
			}
			cohesion = func(cs ...*component.Component) float64 {
				e := NewEoS(false)
				require.NoError(t, e.SetComponents(cs))
				pr, err := e.Compute(ad.Scalar(1, 2), ad.Scalar(1, 280),
					[]ad.Array{ad.Scalar(1, 0.5), ad.Scalar(1, 0.5)})
				require.NoError(t, err)
				return pr.Cohesion.Val[0]
			}
		)
		both := cohesion(methane.WithBIP(propane.CAS, low), propane.WithBIP(methane.CAS, high))
		assert.InDelta(t, cohesion(methane.WithBIP(propane.CAS, low), propane), both, 1e-14)
		assert.InDelta(t, cohesion(methane, propane.WithBIP(methane.CAS, low)), both, 1e-14)
		assert.Greater(t, both, cohesion(methane, propane.WithBIP(methane.CAS, high)))

		e := NewEoS(false)
		require.NoError(t, e.SetComponents([]*component.Component{component.CO2, methane.WithBIP(component.CO2.CAS, low)}))
		_, custom := e.BIP(0, 1)
		assert.True(t, custom)
		require.NoError(t, e.SetComponents([]*component.Component{component.CO2, methane}))
		k, custom := e.BIP(1, 0)
		assert.False(t, custom)
		assert.InDelta(t, 0.1, k, 1e-15)
	}
}
