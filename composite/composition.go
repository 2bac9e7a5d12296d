package composite

import (
	"fmt"
	"math"

	"github.com/notargets/goflash/ad"
	"github.com/notargets/goflash/component"
	"github.com/notargets/goflash/types"
)

const (
	defaultTolerance   = 1e-8
	defaultMaxIter     = 1000
	defaultHistorySize = 100
)

// Subsystem lists the equations and the variable partition of one flash type
type Subsystem struct {
	Equations     []string
	PrimaryVars   []string
	SecondaryVars []string
}

/*
Composition is a mixture of components distributed over phases. The first
component added is the reference component, the first phase added is the
reference phase. The reference phase fraction and the mass balance of the
reference component are eliminated by unity.

Cells are independent, every variable holds one value per cell.
*/
type Composition struct {
	NCells      int
	Tolerance   float64
	MaxIter     int
	HistorySize int
	Verbose     bool
	PTSubsystem Subsystem
	PHSubsystem Subsystem
	sys         *ad.System
	components  []*component.Component
	phases      []*Phase
	phaseIndex  map[string]int
	history     []HistoryEntry
	initialized bool
}

type Option func(c *Composition)

func WithTolerance(tol float64) Option { return func(c *Composition) { c.Tolerance = tol } }
func WithMaxIter(n int) Option         { return func(c *Composition) { c.MaxIter = n } }
func WithHistorySize(n int) Option     { return func(c *Composition) { c.HistorySize = n } }
func WithVerbose(v bool) Option        { return func(c *Composition) { c.Verbose = v } }

// WithParallelDegree sets the number of partitions used by the per cell linear solves
func WithParallelDegree(np int) Option {
	return func(c *Composition) { c.sys.ParallelDegree = np }
}

func NewComposition(nCells int, opts ...Option) (c *Composition) {
	c = &Composition{
		NCells:      nCells,
		Tolerance:   defaultTolerance,
		MaxIter:     defaultMaxIter,
		HistorySize: defaultHistorySize,
		sys:         ad.NewSystem(nCells),
		phaseIndex:  make(map[string]int),
	}
	for _, name := range []string{c.PName(), c.TName(), c.HName()} {
		if err := c.sys.CreateVariable(name); err != nil {
			panic(err)
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return
}

func (c *Composition) PName() string { return "p" }
func (c *Composition) TName() string { return "T" }
func (c *Composition) HName() string { return "h" }

func (c *Composition) FeedName(comp *component.Component) string { return "z_" + comp.Name }

// System gives access to the variables and equations, e.g. to couple the flash to a flow model
func (c *Composition) System() *ad.System { return c.sys }

func (c *Composition) NumComponents() int { return len(c.components) }
func (c *Composition) NumPhases() int     { return len(c.phases) }

func (c *Composition) NumEquilibriumEquations() int {
	if len(c.phases) < 2 {
		return 0
	}
	return len(c.components) * (len(c.phases) - 1)
}

func (c *Composition) Components() (cs []*component.Component) {
	cs = make([]*component.Component, len(c.components))
	copy(cs, c.components)
	return
}

func (c *Composition) Phases() (phs []*Phase) {
	phs = make([]*Phase, len(c.phases))
	copy(phs, c.phases)
	return
}

func (c *Composition) ReferencePhase() *Phase {
	if len(c.phases) == 0 {
		return nil
	}
	return c.phases[0]
}

func (c *Composition) ReferenceComponent() *component.Component {
	if len(c.components) == 0 {
		return nil
	}
	return c.components[0]
}

func (c *Composition) Phase(name string) (ph *Phase, ok bool) {
	var i int
	if i, ok = c.phaseIndex[name]; ok {
		ph = c.phases[i]
	}
	return
}

func (c *Composition) Component(name string) (comp *component.Component, ok bool) {
	for _, comp = range c.components {
		if comp.Name == name {
			return comp, true
		}
	}
	return nil, false
}

/*
AddComponent registers components in order, duplicates are ignored. Each
component gets a feed fraction variable and is added to every phase.
*/
func (c *Composition) AddComponent(cs ...*component.Component) (err error) {
	if c.initialized {
		return types.NewError(types.ErrConfiguration, "adding components to an initialized composition")
	}
	for _, comp := range cs {
		if comp == nil {
			return types.NewError(types.ErrConfiguration, "nil component")
		}
		if _, ok := c.Component(comp.Name); ok {
			continue
		}
		if err = c.sys.CreateVariable(c.FeedName(comp)); err != nil {
			return
		}
		c.components = append(c.components, comp)
		for _, ph := range c.phases {
			if err = ph.AddComponent(comp); err != nil {
				return
			}
		}
	}
	return
}

/*
AddPhase registers a phase under a unique name. Requesting an existing name
returns the existing phase and ignores the model.
*/
func (c *Composition) AddPhase(name string, model PhaseModel) (ph *Phase, err error) {
	if existing, ok := c.Phase(name); ok {
		return existing, nil
	}
	if c.initialized {
		err = types.NewError(types.ErrConfiguration, "adding phases to an initialized composition")
		return
	}
	if model == nil {
		err = types.NewError(types.ErrConfiguration, "phase "+name+" without model")
		return
	}
	if ph, err = newPhase(name, model, c.sys); err != nil {
		return
	}
	for _, comp := range c.components {
		if err = ph.AddComponent(comp); err != nil {
			return
		}
	}
	c.phaseIndex[name] = len(c.phases)
	c.phases = append(c.phases, ph)
	return
}

// SetFeed sets the overall fraction of a component, a single value applies to all cells
func (c *Composition) SetFeed(comp *component.Component, z ...float64) (err error) {
	if _, ok := c.Component(comp.Name); !ok {
		return types.NewError(types.ErrUnknownVariable, "component "+comp.Name)
	}
	return c.setValues(c.FeedName(comp), z)
}

// SetState sets pressure, temperature and specific enthalpy in iterate and state, nil keeps the values
func (c *Composition) SetState(p, T, h []float64) (err error) {
	for _, v := range []struct {
		name string
		vals []float64
	}{{c.PName(), p}, {c.TName(), T}, {c.HName(), h}} {
		if v.vals == nil {
			continue
		}
		if err = c.setValues(v.name, v.vals); err != nil {
			return
		}
	}
	return
}

func (c *Composition) setValues(name string, vals []float64) error {
	if len(vals) == 1 && c.NCells != 1 {
		v := vals[0]
		vals = make([]float64, c.NCells)
		for k := range vals {
			vals[k] = v
		}
	}
	return c.sys.SetVarValues(name, vals, true)
}

// Values returns the current iterate of a variable
func (c *Composition) Values(name string) ([]float64, error) {
	return c.sys.GetVarValues(name, true)
}

/*
Initialize sets the equations and the subsystems of both flash types. It
requires at least one component and two phases.
*/
func (c *Composition) Initialize() (err error) {
	var (
		nc = len(c.components)
		np = len(c.phases)
	)
	if nc == 0 || np < 2 {
		return types.NewError(types.ErrModelLogic,
			fmt.Sprintf("flash needs components and at least two phases, got %d components and %d phases", nc, np))
	}
	var (
		ref       = c.ReferencePhase()
		eqs       []string
		primary   []string
		secondary []string
	)
	// mass balance, eliminated for the reference component
	massComponents := c.components[1:]
	if nc == 1 {
		massComponents = c.components
	}
	for _, comp := range massComponents {
		name := "mass_" + comp.Name
		c.sys.SetEquation(name, c.MassBalance(comp))
		eqs = append(eqs, name)
	}
	for _, comp := range c.components {
		for _, ph := range c.phases[1:] {
			var eq ad.Equation
			if eq, err = c.EquilibriumEquation(comp, ph); err != nil {
				return
			}
			name := "equilibrium_" + comp.Name + "_" + ph.Name
			c.sys.SetEquation(name, eq)
			eqs = append(eqs, name)
		}
	}
	complementary := c.phases[1:]
	if nc > 1 {
		complementary = c.phases
	}
	for _, ph := range complementary {
		name := "complementarity_" + ph.Name
		c.sys.SetEquation(name, c.ComplementaryCondition(ph))
		eqs = append(eqs, name)
	}
	c.sys.SetEquation("enthalpy", c.EnthalpyConstraint())

	for _, ph := range c.phases[1:] {
		primary = append(primary, ph.FractionName())
	}
	for _, ph := range c.phases {
		for _, comp := range c.components {
			primary = append(primary, ph.FractionOfComponentName(comp))
		}
	}
	for _, comp := range c.components {
		secondary = append(secondary, c.FeedName(comp))
	}
	secondary = append(secondary, ref.FractionName())
	for _, ph := range c.phases {
		secondary = append(secondary, ph.SaturationName())
		for _, comp := range c.components {
			secondary = append(secondary, ph.NormalizedFractionOfComponentName(comp))
		}
	}

	c.PTSubsystem = Subsystem{
		Equations:     append([]string{}, eqs...),
		PrimaryVars:   append([]string{}, primary...),
		SecondaryVars: append([]string{c.PName(), c.TName()}, secondary...),
	}
	c.PHSubsystem = Subsystem{
		Equations:     append(append([]string{}, eqs...), "enthalpy"),
		PrimaryVars:   append(append([]string{}, primary...), c.TName()),
		SecondaryVars: append([]string{c.PName(), c.HName()}, secondary...),
	}
	c.initialized = true
	return
}

// ReferenceFraction is y_R = 1 - sum of the other phase fractions
func (c *Composition) ReferenceFraction(ctx *ad.Context) (yR ad.Array) {
	yR = ctx.Scalar(1)
	for _, ph := range c.phases[1:] {
		yR = yR.Sub(ph.Fraction(ctx))
	}
	return
}

// MassBalance is z_c - xi_cR - sum_{e != R} y_e (xi_ce - xi_cR)
func (c *Composition) MassBalance(comp *component.Component) ad.Equation {
	return func(ctx *ad.Context) ad.Array {
		var (
			ref  = c.ReferencePhase()
			xiR  = ref.FractionOfComponent(ctx, comp)
			mass = ctx.Var(c.FeedName(comp)).Sub(xiR)
		)
		for _, ph := range c.phases[1:] {
			mass = mass.Sub(ph.Fraction(ctx).Mul(ph.FractionOfComponent(ctx, comp).Sub(xiR)))
		}
		return mass
	}
}

/*
EquilibriumEquation is the isofugacity condition xi_ce phi_ce - xi_cR phi_cR
of component comp between phase ph and the reference phase.
*/
func (c *Composition) EquilibriumEquation(comp *component.Component, ph *Phase) (eq ad.Equation, err error) {
	ref := c.ReferencePhase()
	if ref == nil || ph == ref {
		err = types.NewError(types.ErrModelLogic, "equilibrium of the reference phase with itself")
		return
	}
	var (
		iRef = componentIndex(ref, comp)
		iPh  = componentIndex(ph, comp)
	)
	if iRef < 0 || iPh < 0 {
		err = types.NewError(types.ErrConfiguration,
			fmt.Sprintf("component %s missing in phase %s or %s", comp.Name, ref.Name, ph.Name))
		return
	}
	eq = func(ctx *ad.Context) ad.Array {
		var (
			phiRef = c.fugacities(ctx, ref)
			phiPh  = c.fugacities(ctx, ph)
		)
		return ph.FractionOfComponent(ctx, comp).Mul(phiPh[iPh]).
			Sub(ref.FractionOfComponent(ctx, comp).Mul(phiRef[iRef]))
	}
	return
}

// ComplementaryCondition is min(y_e, 1 - sum_c xi_ce), y_R is eliminated by unity
func (c *Composition) ComplementaryCondition(ph *Phase) ad.Equation {
	return func(ctx *ad.Context) ad.Array {
		y := ph.Fraction(ctx)
		if ph == c.ReferencePhase() {
			y = c.ReferenceFraction(ctx)
		}
		return ad.Min(y, ph.SumOfFractions(ctx).RSub(1))
	}
}

// EnthalpyConstraint is h - h_R - sum_{e != R} y_e (h_e - h_R)
func (c *Composition) EnthalpyConstraint() ad.Equation {
	return func(ctx *ad.Context) ad.Array {
		var (
			hR = c.enthalpy(ctx, c.ReferencePhase())
			eq = ctx.Var(c.HName()).Sub(hR)
		)
		for _, ph := range c.phases[1:] {
			eq = eq.Sub(ph.Fraction(ctx).Mul(c.enthalpy(ctx, ph).Sub(hR)))
		}
		return eq
	}
}

/*
fugacities are computed once per phase and context. A failed evaluation is
recorded in the context and yields NaN, the assembly reports the error.
*/
func (c *Composition) fugacities(ctx *ad.Context, ph *Phase) []ad.Array {
	key := "phi_" + ph.Name
	if cached, ok := ctx.Cache[key]; ok {
		return cached.([]ad.Array)
	}
	phis, err := ph.FugacityCoefficients(ctx, ctx.Var(c.PName()), ctx.Var(c.TName()))
	if err != nil {
		ctx.Fail(types.NewError(err, "fugacities of phase "+ph.Name))
		phis = make([]ad.Array, ph.NumComponents())
		for i := range phis {
			phis[i] = ctx.Scalar(math.NaN())
		}
	}
	ctx.Cache[key] = phis
	return phis
}

func (c *Composition) enthalpy(ctx *ad.Context, ph *Phase) ad.Array {
	key := "h_" + ph.Name
	if cached, ok := ctx.Cache[key]; ok {
		return cached.(ad.Array)
	}
	h, err := ph.SpecificEnthalpy(ctx, ctx.Var(c.PName()), ctx.Var(c.TName()))
	if err != nil {
		ctx.Fail(types.NewError(err, "enthalpy of phase "+ph.Name))
		h = ctx.Scalar(math.NaN())
	}
	ctx.Cache[key] = h
	return h
}

func componentIndex(ph *Phase, comp *component.Component) int {
	for i, pc := range ph.components {
		if pc.Name == comp.Name {
			return i
		}
	}
	return -1
}

func (c *Composition) String() string {
	out := fmt.Sprintf("Composition with %d components:", len(c.components))
	for _, comp := range c.components {
		out += "\n" + comp.Name
	}
	out += fmt.Sprintf("\nand %d phases:", len(c.phases))
	for _, ph := range c.phases {
		out += fmt.Sprintf("\n%s (%v)", ph.Name, ph.Model.Type())
	}
	return out
}
