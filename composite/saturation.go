package composite

import (
	"fmt"

	"github.com/notargets/goflash/ad"
	"github.com/notargets/goflash/types"
	"github.com/notargets/goflash/utils"
)

// stateContext evaluates values only, at the iterate
func (c *Composition) stateContext() *ad.Context {
	ctx, err := c.sys.NewContext(nil, true)
	if err != nil {
		panic(err)
	}
	return ctx
}

func (c *Composition) densities(ctx *ad.Context) (rho [][]float64, err error) {
	var (
		p = ctx.Var(c.PName())
		T = ctx.Var(c.TName())
	)
	rho = make([][]float64, len(c.phases))
	for i, ph := range c.phases {
		var r ad.Array
		if r, err = ph.Density(ctx, p, T); err != nil {
			return
		}
		rho[i] = r.Val
	}
	return
}

/*
EvaluateSaturations converts the molar phase fractions into volumetric
fractions. The phase fractions are read from the iterate, the reference
phase fraction is always taken from unity.
*/
func (c *Composition) EvaluateSaturations(copyToState bool) (err error) {
	switch n := len(c.phases); {
	case n == 0:
		return
	case n == 1:
		return c.sys.SetVarValues(c.phases[0].SaturationName(), utils.ConstArray(c.NCells, 1), copyToState)
	}
	var (
		ctx = c.stateContext()
		rho [][]float64
		y   = make([][]float64, len(c.phases))
		s   [][]float64
	)
	if rho, err = c.densities(ctx); err != nil {
		return
	}
	y[0] = c.ReferenceFraction(ctx).Val
	for i, ph := range c.phases[1:] {
		y[i+1] = c.sys.MustGetVarValues(ph.FractionName(), true)
	}
	if len(c.phases) == 2 {
		s = TwoPhaseSaturations(y[0], y[1], rho[0], rho[1])
	} else if s, err = MultiPhaseSaturations(y, rho); err != nil {
		return
	}
	for i, ph := range c.phases {
		if err = c.sys.SetVarValues(ph.SaturationName(), s[i], copyToState); err != nil {
			return
		}
	}
	return
}

/*
TwoPhaseSaturations is s_i = 1 / (1 + y_j / (1 - y_j) rho_i / rho_j).
Cells where a phase fraction is exactly one are set to one and zero.
*/
func TwoPhaseSaturations(y1, y2, rho1, rho2 []float64) (s [][]float64) {
	var (
		n = len(y1)
	)
	s = [][]float64{make([]float64, n), make([]float64, n)}
	for k := 0; k < n; k++ {
		switch {
		case y1[k] == 1:
			s[0][k], s[1][k] = 1, 0
		case y2[k] == 1:
			s[0][k], s[1][k] = 0, 1
		default:
			s[0][k] = 1 / (1 + y2[k]/(1-y2[k])*rho1[k]/rho2[k])
			s[1][k] = 1 / (1 + y1[k]/(1-y1[k])*rho2[k]/rho1[k])
		}
	}
	return
}

/*
MultiPhaseSaturations solves per multiphase cell, for every phase i,

	sum_{j != i} (1 + rho_j / rho_i * y_i / (1 - y_i)) s_j = 1

Cells where a phase is saturated (y = 1) get s = 1 for that phase and s = 0
for the vanished others, without a solve.
*/
func MultiPhaseSaturations(y, rho [][]float64) (s [][]float64, err error) {
	var (
		np = len(y)
		n  = len(y[0])
	)
	s = make([][]float64, np)
	for i := range s {
		s[i] = make([]float64, n)
	}
	var (
		M   = utils.NewMatrix(np, np)
		rhs = utils.ConstArray(np, 1)
	)
CELLS:
	for k := 0; k < n; k++ {
		for i := 0; i < np; i++ {
			if y[i][k] == 1 {
				s[i][k] = 1
				continue CELLS
			}
		}
		for i := 0; i < np; i++ {
			ratio := y[i][k] / (1 - y[i][k])
			for j := 0; j < np; j++ {
				if i == j {
					M.Set(i, j, 0)
					continue
				}
				M.Set(i, j, 1+rho[j][k]/rho[i][k]*ratio)
			}
		}
		var sk []float64
		if sk, err = M.LUSolve(rhs); err != nil {
			err = types.NewError(types.ErrSingularSystem, fmt.Sprintf("saturations in cell %d: %v", k, err))
			return
		}
		for i := range sk {
			s[i][k] = sk[i]
		}
	}
	return
}

// EvaluateSpecificEnthalpy sets h = sum_e y_e h_e, with y_R from unity
func (c *Composition) EvaluateSpecificEnthalpy(copyToState bool) (err error) {
	var (
		ctx = c.stateContext()
		p   = ctx.Var(c.PName())
		T   = ctx.Var(c.TName())
		h   = ctx.Scalar(0)
	)
	for i, ph := range c.phases {
		var (
			hPh ad.Array
			y   ad.Array
		)
		if hPh, err = ph.SpecificEnthalpy(ctx, p, T); err != nil {
			return
		}
		if i == 0 {
			y = c.ReferenceFraction(ctx)
		} else {
			y = ph.Fraction(ctx)
		}
		h = h.Add(y.Mul(hPh))
	}
	return c.sys.SetVarValues(c.HName(), h.Val, copyToState)
}

/*
PostProcessFractions sets the reference phase fraction from unity, clips the
phase fractions to [0,1], sets chi = xi / sum(xi) and clips xi and chi to
[0,1]. Feed fractions are never changed.
*/
func (c *Composition) PostProcessFractions(copyToState bool) (err error) {
	if len(c.phases) == 0 {
		return
	}
	ctx := c.stateContext()
	yR := c.ReferenceFraction(ctx).Val
	if err = c.sys.SetVarValues(c.ReferencePhase().FractionName(), yR, copyToState); err != nil {
		return
	}
	for _, ph := range c.phases {
		y := c.sys.MustGetVarValues(ph.FractionName(), true)
		if err = c.sys.SetVarValues(ph.FractionName(), utils.Clamp(y, 0, 1), copyToState); err != nil {
			return
		}
		var (
			xi  = make([][]float64, len(ph.components))
			sum = make([]float64, c.NCells)
		)
		for i, comp := range ph.components {
			xi[i] = c.sys.MustGetVarValues(ph.FractionOfComponentName(comp), true)
			for k, v := range xi[i] {
				sum[k] += v
			}
		}
		for i, comp := range ph.components {
			chi := make([]float64, c.NCells)
			for k := range chi {
				chi[k] = xi[i][k] / sum[k]
			}
			if err = c.sys.SetVarValues(ph.FractionOfComponentName(comp), utils.Clamp(xi[i], 0, 1), copyToState); err != nil {
				return
			}
			if err = c.sys.SetVarValues(ph.NormalizedFractionOfComponentName(comp), utils.Clamp(chi, 0, 1), copyToState); err != nil {
				return
			}
		}
	}
	return
}
