package composite

import (
	"fmt"

	"github.com/notargets/goflash/ad"
	"github.com/notargets/goflash/component"
	"github.com/notargets/goflash/pengrobinson"
	"github.com/notargets/goflash/types"
)

/*
Phase is a named state of matter inside a Composition. It owns the
fractional variables of the phase: the saturation s, the molar phase
fraction y, and per component the extended fraction xi and the normalized
fraction chi = xi / sum(xi). Thermodynamic properties are delegated to the
phase model.
*/
type Phase struct {
	Name       string
	Model      PhaseModel
	sys        *ad.System
	components []*component.Component
}

func newPhase(name string, model PhaseModel, sys *ad.System) (ph *Phase, err error) {
	ph = &Phase{
		Name:  name,
		Model: model,
		sys:   sys,
	}
	if err = sys.CreateVariable(ph.SaturationName()); err != nil {
		return
	}
	err = sys.CreateVariable(ph.FractionName())
	return
}

func (ph *Phase) SaturationName() string { return "s_" + ph.Name }
func (ph *Phase) FractionName() string   { return "y_" + ph.Name }

func (ph *Phase) FractionOfComponentName(c *component.Component) string {
	return "xi_" + c.Name + "_" + ph.Name
}

func (ph *Phase) NormalizedFractionOfComponentName(c *component.Component) string {
	return "chi_" + c.Name + "_" + ph.Name
}

// AddComponent registers c once, its fractions start at zero
func (ph *Phase) AddComponent(c *component.Component) (err error) {
	if c == nil {
		return types.NewError(types.ErrConfiguration, "nil component for phase "+ph.Name)
	}
	if ph.HasComponent(c) {
		return
	}
	if err = ph.sys.CreateVariable(ph.FractionOfComponentName(c)); err != nil {
		return
	}
	if err = ph.sys.CreateVariable(ph.NormalizedFractionOfComponentName(c)); err != nil {
		return
	}
	ph.components = append(ph.components, c)
	return ph.Model.SetComponents(ph.components)
}

func (ph *Phase) HasComponent(c *component.Component) bool {
	for _, pc := range ph.components {
		if pc.Name == c.Name {
			return true
		}
	}
	return false
}

func (ph *Phase) Components() (cs []*component.Component) {
	cs = make([]*component.Component, len(ph.components))
	copy(cs, ph.components)
	return
}

func (ph *Phase) NumComponents() int { return len(ph.components) }

func (ph *Phase) Saturation(ctx *ad.Context) ad.Array { return ctx.Var(ph.SaturationName()) }
func (ph *Phase) Fraction(ctx *ad.Context) ad.Array   { return ctx.Var(ph.FractionName()) }

// FractionOfComponent is the extended fraction, a zero constant for components not in the phase
func (ph *Phase) FractionOfComponent(ctx *ad.Context, c *component.Component) ad.Array {
	if !ph.HasComponent(c) {
		return ctx.Scalar(0)
	}
	return ctx.Var(ph.FractionOfComponentName(c))
}

func (ph *Phase) NormalizedFractionOfComponent(ctx *ad.Context, c *component.Component) ad.Array {
	if !ph.HasComponent(c) {
		return ctx.Scalar(0)
	}
	return ctx.Var(ph.NormalizedFractionOfComponentName(c))
}

// SumOfFractions is sum(xi) over the components of the phase
func (ph *Phase) SumOfFractions(ctx *ad.Context) (sum ad.Array) {
	sum = ctx.Scalar(0)
	for _, c := range ph.components {
		sum = sum.Add(ph.FractionOfComponent(ctx, c))
	}
	return
}

// Composition returns xi / sum(xi), in component order
func (ph *Phase) Composition(ctx *ad.Context) (X []ad.Array) {
	var (
		sum = ph.SumOfFractions(ctx)
	)
	X = make([]ad.Array, len(ph.components))
	for i, c := range ph.components {
		X[i] = ph.FractionOfComponent(ctx, c).Div(sum)
	}
	return
}

// propertyModel evaluates all properties of a phase in one call
type propertyModel interface {
	Properties(p, T ad.Array, X []ad.Array) (pengrobinson.Properties, error)
}

/*
properties evaluates a propertyModel once per context, p and T are the
pressure and temperature of the context. ok is false for other models.
*/
func (ph *Phase) properties(ctx *ad.Context, p, T ad.Array) (props pengrobinson.Properties, ok bool, err error) {
	var pm propertyModel
	if pm, ok = ph.Model.(propertyModel); !ok {
		return
	}
	key := "props_" + ph.Name
	if cached, found := ctx.Cache[key]; found {
		props = cached.(pengrobinson.Properties)
		return
	}
	if props, err = pm.Properties(p, T, ph.Composition(ctx)); err != nil {
		return
	}
	ctx.Cache[key] = props
	return
}

func (ph *Phase) Density(ctx *ad.Context, p, T ad.Array) (ad.Array, error) {
	if props, ok, err := ph.properties(ctx, p, T); ok {
		return props.Rho, err
	}
	return ph.Model.Density(p, T, ph.Composition(ctx))
}

func (ph *Phase) SpecificEnthalpy(ctx *ad.Context, p, T ad.Array) (ad.Array, error) {
	if props, ok, err := ph.properties(ctx, p, T); ok {
		return props.H, err
	}
	return ph.Model.SpecificEnthalpy(p, T, ph.Composition(ctx))
}

func (ph *Phase) DynamicViscosity(ctx *ad.Context, p, T ad.Array) (ad.Array, error) {
	if props, ok, err := ph.properties(ctx, p, T); ok {
		return props.Mu, err
	}
	return ph.Model.DynamicViscosity(p, T, ph.Composition(ctx))
}

func (ph *Phase) ThermalConductivity(ctx *ad.Context, p, T ad.Array) (ad.Array, error) {
	if props, ok, err := ph.properties(ctx, p, T); ok {
		return props.Kappa, err
	}
	return ph.Model.ThermalConductivity(p, T, ph.Composition(ctx))
}

func (ph *Phase) FugacityCoefficients(ctx *ad.Context, p, T ad.Array) ([]ad.Array, error) {
	if props, ok, err := ph.properties(ctx, p, T); ok {
		return props.Phis, err
	}
	return ph.Model.FugacityCoefficients(p, T, ph.Composition(ctx))
}

// MassDensity is rho * sum(M_c chi_c) [kg / m^3], exactly zero without components
func (ph *Phase) MassDensity(ctx *ad.Context, p, T ad.Array) (rho ad.Array, err error) {
	if len(ph.components) == 0 {
		rho = ctx.Scalar(0)
		return
	}
	if rho, err = ph.Density(ctx, p, T); err != nil {
		return
	}
	var (
		X         = ph.Composition(ctx)
		molarMass = ctx.Scalar(0)
	)
	for i, c := range ph.components {
		molarMass = molarMass.Add(X[i].Scale(c.MolarMass))
	}
	rho = rho.Mul(molarMass)
	return
}

func (ph *Phase) String() string {
	names := make([]string, len(ph.components))
	for i, c := range ph.components {
		names[i] = c.Name
	}
	return fmt.Sprintf("Phase %s (%v): components %v", ph.Name, ph.Model.Type(), names)
}
