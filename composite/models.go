package composite

import (
	"fmt"

	"github.com/notargets/goflash/ad"
	"github.com/notargets/goflash/component"
	"github.com/notargets/goflash/pengrobinson"
	"github.com/notargets/goflash/types"
)

/*
PhaseModel is the capability set of a phase. X holds the normalized fractions
of the components given to SetComponents, in the same order. Units: p in MPa,
T in K, density in mol/m^3, enthalpy in kJ/mol.
*/
type PhaseModel interface {
	Type() types.PhaseModel
	SetComponents(cs []*component.Component) error
	Density(p, T ad.Array, X []ad.Array) (ad.Array, error)
	SpecificEnthalpy(p, T ad.Array, X []ad.Array) (ad.Array, error)
	DynamicViscosity(p, T ad.Array, X []ad.Array) (ad.Array, error)
	ThermalConductivity(p, T ad.Array, X []ad.Array) (ad.Array, error)
	FugacityCoefficients(p, T ad.Array, X []ad.Array) ([]ad.Array, error)
}

// PhaseModels is the strategy table used by NewPhaseModel
var PhaseModels = map[types.PhaseModel]func(opts ...pengrobinson.Option) PhaseModel{
	types.PHASE_INCOMPRESSIBLE: func(...pengrobinson.Option) PhaseModel { return &IncompressibleFluid{} },
	types.PHASE_IDEALGAS:       func(...pengrobinson.Option) PhaseModel { return &IdealGas{} },
	types.PHASE_PR_LIQUID: func(opts ...pengrobinson.Option) PhaseModel {
		return NewPRPhase(false, opts...)
	},
	types.PHASE_PR_GAS: func(opts ...pengrobinson.Option) PhaseModel {
		return NewPRPhase(true, opts...)
	},
}

// NewPhaseModel builds a model from the strategy table, options only apply to Peng-Robinson phases
func NewPhaseModel(kind types.PhaseModel, opts ...pengrobinson.Option) (pm PhaseModel, err error) {
	newModel, ok := PhaseModels[kind]
	if !ok {
		err = types.NewError(types.ErrConfiguration, fmt.Sprintf("unknown phase model %v", kind))
		return
	}
	pm = newModel(opts...)
	return
}

func checkFractions(op string, X []ad.Array, nc int) (err error) {
	if len(X) != nc {
		err = types.NewError(types.ErrDimensionMismatch,
			fmt.Sprintf("%s: %d fractions for %d components", op, len(X), nc))
	}
	return
}

const incompressibleDensity = 1e6 / component.V_REF // [mol / m^3]

/*
IncompressibleFluid has a constant molar density. The fugacity coefficient of
each component follows from its Wilson vapour pressure, phi = psat(T) / p.
*/
type IncompressibleFluid struct {
	components []*component.Component
}

func (f *IncompressibleFluid) Type() types.PhaseModel { return types.PHASE_INCOMPRESSIBLE }

func (f *IncompressibleFluid) SetComponents(cs []*component.Component) (err error) {
	f.components = append([]*component.Component{}, cs...)
	return
}

func (f *IncompressibleFluid) Density(p, T ad.Array, X []ad.Array) (ad.Array, error) {
	return ad.Scalar(p.Len(), incompressibleDensity), checkFractions("density", X, len(f.components))
}

// SpecificEnthalpy is U_REF + P_REF/rho + CP_REF (T - T_REF) + V_REF (p - P_REF)
func (f *IncompressibleFluid) SpecificEnthalpy(p, T ad.Array, X []ad.Array) (h ad.Array, err error) {
	if err = checkFractions("enthalpy", X, len(f.components)); err != nil {
		return
	}
	h = T.AddScalar(-component.T_REF).Scale(component.CP_REF).
		Add(p.AddScalar(-component.P_REF).Scale(component.V_REF)).
		AddScalar(component.U_REF + component.P_REF/incompressibleDensity)
	return
}

func (f *IncompressibleFluid) DynamicViscosity(p, T ad.Array, X []ad.Array) (ad.Array, error) {
	return ad.Scalar(p.Len(), 1), nil
}

func (f *IncompressibleFluid) ThermalConductivity(p, T ad.Array, X []ad.Array) (ad.Array, error) {
	return ad.Scalar(p.Len(), 1), nil
}

func (f *IncompressibleFluid) FugacityCoefficients(p, T ad.Array, X []ad.Array) (phis []ad.Array, err error) {
	if err = checkFractions("fugacity", X, len(f.components)); err != nil {
		return
	}
	phis = make([]ad.Array, len(f.components))
	for i, c := range f.components {
		phis[i] = c.WilsonPsat(T).Div(p)
	}
	return
}

// IdealGas has unit fugacity coefficients
type IdealGas struct {
	components []*component.Component
}

func (g *IdealGas) Type() types.PhaseModel { return types.PHASE_IDEALGAS }

func (g *IdealGas) SetComponents(cs []*component.Component) (err error) {
	g.components = append([]*component.Component{}, cs...)
	return
}

// Density is p / (R T) [mol / m^3]
func (g *IdealGas) Density(p, T ad.Array, X []ad.Array) (rho ad.Array, err error) {
	if err = checkFractions("density", X, len(g.components)); err != nil {
		return
	}
	rho = p.Div(T).Scale(component.PRESSURE_SCALE / component.ENERGY_SCALE / component.R_IDEAL)
	return
}

// SpecificEnthalpy is U_REF + R T_REF + CP_REF (T - T_REF)
func (g *IdealGas) SpecificEnthalpy(p, T ad.Array, X []ad.Array) (h ad.Array, err error) {
	if err = checkFractions("enthalpy", X, len(g.components)); err != nil {
		return
	}
	h = T.AddScalar(-component.T_REF).Scale(component.CP_REF).
		AddScalar(component.U_REF + component.R_IDEAL*component.T_REF)
	return
}

func (g *IdealGas) DynamicViscosity(p, T ad.Array, X []ad.Array) (ad.Array, error) {
	return ad.Scalar(p.Len(), 1), nil
}

func (g *IdealGas) ThermalConductivity(p, T ad.Array, X []ad.Array) (ad.Array, error) {
	return ad.Scalar(p.Len(), 1), nil
}

func (g *IdealGas) FugacityCoefficients(p, T ad.Array, X []ad.Array) (phis []ad.Array, err error) {
	if err = checkFractions("fugacity", X, len(g.components)); err != nil {
		return
	}
	phis = make([]ad.Array, len(g.components))
	for i := range phis {
		phis[i] = ad.Scalar(p.Len(), 1)
	}
	return
}

// PRPhase evaluates its properties with the Peng-Robinson equation of state
type PRPhase struct {
	EoS *pengrobinson.EoS
}

func NewPRPhase(gaslike bool, opts ...pengrobinson.Option) *PRPhase {
	return &PRPhase{EoS: pengrobinson.NewEoS(gaslike, opts...)}
}

func (pr *PRPhase) Type() types.PhaseModel {
	if pr.EoS.Gaslike {
		return types.PHASE_PR_GAS
	}
	return types.PHASE_PR_LIQUID
}

func (pr *PRPhase) SetComponents(cs []*component.Component) error { return pr.EoS.SetComponents(cs) }

// Properties exposes the full equation of state evaluation
func (pr *PRPhase) Properties(p, T ad.Array, X []ad.Array) (pengrobinson.Properties, error) {
	return pr.EoS.Compute(p, T, X)
}

func (pr *PRPhase) Density(p, T ad.Array, X []ad.Array) (rho ad.Array, err error) {
	var props pengrobinson.Properties
	if props, err = pr.EoS.Compute(p, T, X); err != nil {
		return
	}
	rho = props.Rho
	return
}

func (pr *PRPhase) SpecificEnthalpy(p, T ad.Array, X []ad.Array) (h ad.Array, err error) {
	var props pengrobinson.Properties
	if props, err = pr.EoS.Compute(p, T, X); err != nil {
		return
	}
	h = props.H
	return
}

func (pr *PRPhase) DynamicViscosity(p, T ad.Array, X []ad.Array) (mu ad.Array, err error) {
	var props pengrobinson.Properties
	if props, err = pr.EoS.Compute(p, T, X); err != nil {
		return
	}
	mu = props.Mu
	return
}

func (pr *PRPhase) ThermalConductivity(p, T ad.Array, X []ad.Array) (kappa ad.Array, err error) {
	var props pengrobinson.Properties
	if props, err = pr.EoS.Compute(p, T, X); err != nil {
		return
	}
	kappa = props.Kappa
	return
}

func (pr *PRPhase) FugacityCoefficients(p, T ad.Array, X []ad.Array) (phis []ad.Array, err error) {
	var props pengrobinson.Properties
	if props, err = pr.EoS.Compute(p, T, X); err != nil {
		return
	}
	phis = props.Phis
	return
}
