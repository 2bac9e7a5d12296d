package component

import (
	"fmt"
	"math"

	"github.com/notargets/goflash/ad"
)

// BIPFunc is a temperature dependent binary interaction parameter and its temperature derivative
type BIPFunc func(T ad.Array) (k, dTk ad.Array)

/*
Component is an immutable chemical species. Pc is in MPa, Tc in K, MolarMass
in kg/mol and Cp, the ideal gas heat capacity, in kJ/(K mol).
BIPs maps the CAS number of another component to a custom interaction model.
*/
type Component struct {
	Name      string
	CAS       string
	MolarMass float64
	Pc        float64
	Tc        float64
	Omega     float64
	Cp        float64
	BIPs      map[string]BIPFunc
}

func NewComponent(name, cas string, molarMass, pc, tc, omega float64) (c *Component) {
	c = &Component{
		Name:      name,
		CAS:       cas,
		MolarMass: molarMass,
		Pc:        pc,
		Tc:        tc,
		Omega:     omega,
		Cp:        CP_REF,
	}
	return
}

// WithBIP returns a copy of the component carrying a custom BIP with the component of CAS number other
func (c *Component) WithBIP(other string, bip BIPFunc) (R *Component) {
	R = &Component{}
	*R = *c
	R.BIPs = make(map[string]BIPFunc, len(c.BIPs)+1)
	for k, v := range c.BIPs {
		R.BIPs[k] = v
	}
	R.BIPs[other] = bip
	return
}

func (c *Component) GetBIP(other string) (bip BIPFunc, ok bool) {
	if c.BIPs == nil {
		return
	}
	bip, ok = c.BIPs[other]
	return
}

// IdealEnthalpy is H_REF + Cp (T - T_REF)
func (c *Component) IdealEnthalpy(T ad.Array) ad.Array {
	return T.AddScalar(-T_REF).Scale(c.Cp).AddScalar(H_REF)
}

// WilsonPsat is the vapour pressure estimate pc exp(5.373 (1 + omega)(1 - Tc/T))
func (c *Component) WilsonPsat(T ad.Array) ad.Array {
	return ad.Exp(T.RDiv(c.Tc).RSub(1).Scale(5.373 * (1 + c.Omega))).Scale(c.Pc)
}

// WilsonK is the equilibrium ratio estimate Psat(T) / p
func (c *Component) WilsonK(p, T float64) float64 {
	return c.Pc / p * math.Exp(5.373*(1+c.Omega)*(1-c.Tc/T))
}

func (c *Component) String() string {
	return fmt.Sprintf("%s (CAS %s): Tc = %8.3f K, pc = %8.4f MPa, omega = %6.4f", c.Name, c.CAS, c.Tc, c.Pc, c.Omega)
}

/*
Compound is a component acting as a solvent for a set of solutes. Solute
fractions are per cell and do not enter the equilibrium computation.
*/
type Compound struct {
	*Component
	solutes   []*Component
	fractions map[string][]float64
}

func NewCompound(solvent *Component) (c *Compound) {
	c = &Compound{
		Component: solvent,
		fractions: make(map[string][]float64),
	}
	return
}

// AddSolute registers a solute once with zero fractions in nCells cells
func (c *Compound) AddSolute(solute *Component, nCells int) {
	if _, ok := c.fractions[solute.Name]; ok {
		return
	}
	c.solutes = append(c.solutes, solute)
	c.fractions[solute.Name] = make([]float64, nCells)
}

func (c *Compound) Solutes() (s []*Component) {
	s = make([]*Component, len(c.solutes))
	copy(s, c.solutes)
	return
}

func (c *Compound) SoluteFraction(name string) (f []float64, ok bool) {
	var frac []float64
	if frac, ok = c.fractions[name]; ok {
		f = make([]float64, len(frac))
		copy(f, frac)
	}
	return
}

func (c *Compound) SetSoluteFraction(name string, f []float64) (err error) {
	frac, ok := c.fractions[name]
	if !ok {
		return fmt.Errorf("solute %q is not part of compound %q", name, c.Name)
	}
	if len(f) != len(frac) {
		return fmt.Errorf("solute %q has %d cells, got %d values", name, len(frac), len(f))
	}
	copy(frac, f)
	return
}

// MolalityOf converts a solute fraction into mol solute per kg solvent
func (c *Compound) MolalityOf(name string) (m []float64, ok bool) {
	var frac []float64
	if frac, ok = c.fractions[name]; !ok {
		return
	}
	m = make([]float64, len(frac))
	for k, x := range frac {
		m[k] = x / ((1 - x) * c.MolarMass)
	}
	return
}
