package pengrobinson

import (
	"fmt"
	"log"
	"math"

	"github.com/notargets/goflash/ad"
	"github.com/notargets/goflash/component"
	"github.com/notargets/goflash/types"
)

var (
	// Critical values of the non-dimensional cohesion, covolume and compressibility
	A_CRIT = 1. / 512. * (-59. + 3.*math.Cbrt(276231.-192512.*math.Sqrt2) + 3.*math.Cbrt(276231.+192512.*math.Sqrt2))
	B_CRIT = 1. / 32. * (-1. - 3.*math.Cbrt(16.*math.Sqrt2-13.) + 3.*math.Cbrt(16.*math.Sqrt2+13.))
	Z_CRIT = 1. / 32. * (11. + math.Cbrt(16.*math.Sqrt2-13.) - math.Cbrt(16.*math.Sqrt2+13.))
)

const (
	// Slope of the approximated sub pseudo-critical line through (A_CRIT, B_CRIT)
	pseudoCriticalSlope = 0.7 * 0.3381965009398633
	// Lower bound for the argument of the logarithm in the fugacity coefficient
	minZminusB = 1e-8
)

/*
EoS is the Peng-Robinson equation of state for a mixture. The constants
per component are fixed when the components are set, Compute keeps no state
between calls.
*/
type EoS struct {
	Gaslike        bool
	MixingRule     types.MixingRule
	Smoothing      float64 // bandwidth of the root smoother, 0 disables smoothing
	Eps            float64
	ParallelDegree int
	components     []*component.Component
	aCrit, bCrit   []float64
	kappa          []float64
	bips           [][]float64 // upper triangle
	customBIPs     map[types.PairKey]component.BIPFunc
}

type Option func(e *EoS)

func WithMixingRule(mr types.MixingRule) Option { return func(e *EoS) { e.MixingRule = mr } }
func WithSmoothing(s float64) Option           { return func(e *EoS) { e.Smoothing = s } }
func WithEps(eps float64) Option               { return func(e *EoS) { e.Eps = eps } }
func WithParallelDegree(np int) Option         { return func(e *EoS) { e.ParallelDegree = np } }

func NewEoS(gaslike bool, opts ...Option) (e *EoS) {
	e = &EoS{
		Gaslike:    gaslike,
		MixingRule: types.MIXING_VDW,
		Eps:        1e-14,
		customBIPs: make(map[types.PairKey]component.BIPFunc),
	}
	for _, opt := range opts {
		opt(e)
	}
	return
}

func (e *EoS) Components() (cs []*component.Component) {
	cs = make([]*component.Component, len(e.components))
	copy(cs, e.components)
	return
}

func (e *EoS) checkMixingRule() (err error) {
	if e.MixingRule != types.MIXING_VDW {
		err = types.NewError(types.ErrConfiguration, fmt.Sprintf("unknown mixing rule %v", e.MixingRule))
	}
	return
}

/*
SetComponents computes the critical cohesion and covolume per component and
resolves the binary interaction parameters for each pair i < j:
  - a custom model of component i for component j is preferred
  - a custom model of j for i is used if i has none, if both exist the one of i is used
  - otherwise the tabulated value is used, unknown pairs are zero
*/
func (e *EoS) SetComponents(cs []*component.Component) (err error) {
	if err = e.checkMixingRule(); err != nil {
		return
	}
	var (
		nc = len(cs)
	)
	e.components = make([]*component.Component, nc)
	copy(e.components, cs)
	e.aCrit = make([]float64, nc)
	e.bCrit = make([]float64, nc)
	e.kappa = make([]float64, nc)
	e.bips = make([][]float64, nc)
	e.customBIPs = make(map[types.PairKey]component.BIPFunc)
	for i, c := range cs {
		e.aCrit[i] = A_CRIT * R2 * c.Tc * c.Tc / c.Pc
		e.bCrit[i] = B_CRIT * R * c.Tc / c.Pc
		e.kappa[i] = KappaCorrection(c.Omega)
		e.bips[i] = make([]float64, nc)
	}
	for i := 0; i < nc; i++ {
		for j := i + 1; j < nc; j++ {
			ci, cj := cs[i], cs[j]
			key := types.NewPairKey([2]int{i, j})
			bipI, okI := ci.GetBIP(cj.CAS)
			bipJ, okJ := cj.GetBIP(ci.CAS)
			switch {
			case okI && okJ:
				log.Printf("double implementation of BIP for %s and %s, using the model of %s",
					ci.Name, cj.Name, ci.Name)
				e.customBIPs[key] = bipI
			case okI:
				e.customBIPs[key] = bipI
			case okJ:
				e.customBIPs[key] = bipJ
			default:
				bip, found := component.LoadBIP(ci.CAS, cj.CAS)
				if !found && ci.CAS != "" && cj.CAS != "" {
					log.Printf("no BIP available for %s and %s, using zero", ci.Name, cj.Name)
				}
				e.bips[i][j] = bip
			}
		}
	}
	return
}

// BIP returns the resolved static parameter of components i and j
func (e *EoS) BIP(i, j int) (k float64, custom bool) {
	if i == j {
		return
	}
	if _, custom = e.customBIPs[types.NewPairKey([2]int{i, j})]; custom {
		return
	}
	if i > j {
		i, j = j, i
	}
	k = e.bips[i][j]
	return
}

const (
	R  = component.R_IDEAL
	R2 = R * R
)

func KappaCorrection(omega float64) float64 {
	if omega < 0.491 {
		return 0.37464 + 1.54226*omega - 0.26992*omega*omega
	}
	return 0.379642 + 1.48503*omega - 0.164423*omega*omega + 0.016666*omega*omega*omega
}

// Properties of a phase, per cell, computed by one call to Compute
type Properties struct {
	A, B            ad.Array // non-dimensional cohesion and covolume
	Cohesion        ad.Array
	DTCohesion      ad.Array
	Covolume        ad.Array
	Z               ad.Array // root of the phase label
	ZOther          ad.Array
	Rho             ad.Array // [mol / m^3]
	RhoMass         ad.Array // [kg / m^3]
	V               ad.Array // [m^3 / mol]
	HIdeal          ad.Array
	HDep            ad.Array
	H               ad.Array // [kJ / mol]
	Phis            []ad.Array
	Kappa           ad.Array // thermal conductivity
	Mu              ad.Array // dynamic viscosity
	IsExtended      []bool
	IsSupercritical []bool
	Regions         []types.RootRegion
}

/*
Compute evaluates the equation of state at pressure p [MPa], temperature
T [K] and the mole fractions X of the components, len(X) must equal the
number of components.
*/
func (e *EoS) Compute(p, T ad.Array, X []ad.Array) (props Properties, err error) {
	if err = e.checkMixingRule(); err != nil {
		return
	}
	var (
		nc = len(e.components)
		n  = p.Len()
	)
	if len(X) != nc {
		err = types.NewError(types.ErrDimensionMismatch,
			fmt.Sprintf("%d fractions for %d components", len(X), nc))
		return
	}
	if nc == 0 {
		err = types.NewError(types.ErrConfiguration, "equation of state without components")
		return
	}
	bip, dTbip := e.computeBIPs(T)
	ai, dTai := e.componentCohesions(T)

	var (
		a    = ad.Scalar(n, 0)
		dTa  = ad.Scalar(n, 0)
		b    = ad.Scalar(n, 0)
		dXia = make([]ad.Array, nc)
	)
	for i := range dXia {
		dXia[i] = ad.Scalar(n, 0)
	}
	for i := 0; i < nc; i++ {
		b = b.Add(X[i].Scale(e.bCrit[i]))
		for j := 0; j < nc; j++ {
			var aij, dTaij, kij, dTkij ad.Array
			if i == j {
				aij, dTaij = ai[i], dTai[i]
				kij, dTkij = ad.Scalar(n, 0), ad.Scalar(n, 0)
			} else {
				aij = ad.Sqrt(ai[i].Mul(ai[j]))
				dTaij = dTai[i].Mul(ai[j]).Add(ai[i].Mul(dTai[j])).Div(aij.Scale(2))
				kij, dTkij = bip[min(i, j)][max(i, j)], dTbip[min(i, j)][max(i, j)]
			}
			term := aij.Mul(kij.RSub(1))
			xx := X[i].Mul(X[j])
			a = a.Add(xx.Mul(term))
			dTa = dTa.Add(xx.Mul(dTaij.Mul(kij.RSub(1)).Sub(aij.Mul(dTkij))))
			dXia[i] = dXia[i].Add(X[j].Mul(term).Scale(2))
		}
	}
	A := a.Mul(p).Div(T.Mul(T)).Scale(1 / R2)
	B := b.Mul(p).Div(T).Scale(1 / R)

	Z, ZOther, cl, err := e.ComputeRoots(A, B)
	if err != nil {
		return
	}

	props = Properties{
		A:               A,
		B:               B,
		Cohesion:        a,
		DTCohesion:      dTa,
		Covolume:        b,
		Z:               Z,
		ZOther:          ZOther,
		IsExtended:      cl.IsExtended(e.Gaslike),
		IsSupercritical: cl.IsSupercritical,
		Regions:         cl.Regions,
		Kappa:           ad.Scalar(n, 1),
		Mu:              ad.Scalar(n, 1),
	}
	props.Rho = p.Div(Z.Mul(T)).Scale(1 / R * component.PRESSURE_SCALE / component.ENERGY_SCALE)
	props.V = Z.Mul(T).Div(p).Scale(R * component.ENERGY_SCALE / component.PRESSURE_SCALE)
	molarMass := ad.Scalar(n, 0)
	for i, c := range e.components {
		molarMass = molarMass.Add(X[i].Scale(c.MolarMass))
	}
	props.RhoMass = props.Rho.Mul(molarMass)

	logTerm := ad.Log(Z.Add(B.Scale(1 + math.Sqrt2)).Div(Z.Add(B.Scale(1 - math.Sqrt2))))
	props.HIdeal = ad.Scalar(n, 0)
	for i, c := range e.components {
		props.HIdeal = props.HIdeal.Add(X[i].Mul(c.IdealEnthalpy(T)))
	}
	props.HDep = dTa.Mul(T).Sub(a).Div(b).Mul(logTerm).Scale(1 / math.Sqrt(8)).
		Add(Z.AddScalar(-1).Mul(T).Scale(R))
	props.H = props.HIdeal.Add(props.HDep)

	props.Phis = make([]ad.Array, nc)
	lnZB := ad.Log(ad.Max(Z.Sub(B), ad.Scalar(n, minZminusB)))
	AoverB := A.Div(B.Scale(math.Sqrt(8)))
	for i := 0; i < nc; i++ {
		Bi := p.Div(T).Scale(e.bCrit[i] / R)
		BioverB := Bi.Div(B)
		lnPhi := Z.AddScalar(-1).Mul(BioverB).
			Sub(lnZB).
			Sub(AoverB.Mul(dXia[i].Div(a).Sub(BioverB)).Mul(logTerm))
		props.Phis[i] = ad.Exp(lnPhi)
	}
	return
}

func (e *EoS) computeBIPs(T ad.Array) (bip, dTbip [][]ad.Array) {
	var (
		nc = len(e.components)
		n  = T.Len()
	)
	bip = make([][]ad.Array, nc)
	dTbip = make([][]ad.Array, nc)
	for i := 0; i < nc; i++ {
		bip[i] = make([]ad.Array, nc)
		dTbip[i] = make([]ad.Array, nc)
		for j := i + 1; j < nc; j++ {
			if f, ok := e.customBIPs[types.NewPairKey([2]int{i, j})]; ok {
				bip[i][j], dTbip[i][j] = f(T)
			} else {
				bip[i][j], dTbip[i][j] = ad.Scalar(n, e.bips[i][j]), ad.Scalar(n, 0)
			}
		}
	}
	return
}

// componentCohesions returns a_i = a_crit alpha^2 and its temperature derivative
func (e *EoS) componentCohesions(T ad.Array) (ai, dTai []ad.Array) {
	var (
		nc = len(e.components)
	)
	ai = make([]ad.Array, nc)
	dTai = make([]ad.Array, nc)
	for i, c := range e.components {
		sqrtTr := ad.Sqrt(T.Scale(1 / c.Tc))
		alpha := sqrtTr.RSub(1).Scale(e.kappa[i]).AddScalar(1)
		ai[i] = alpha.Mul(alpha).Scale(e.aCrit[i])
		dTai[i] = alpha.Div(sqrtTr).Scale(-e.aCrit[i] * e.kappa[i] / c.Tc)
	}
	return
}
