package composite

import (
	"fmt"
	"log"

	"github.com/notargets/goflash/ad"
	"github.com/notargets/goflash/types"
	"github.com/notargets/goflash/utils"
)

type HistoryEntry struct {
	Flash      types.FlashType
	Method     string
	Iterations int
	Success    bool
	Variables  []string
	Equations  []string
	Other      map[string]string
}

func (he HistoryEntry) String() string {
	return fmt.Sprintf("\nProcedure: %v\nSUCCESS: %v\nMethod: %s\nIterations: %d\nRemarks: %v",
		he.Flash, he.Success, he.Method, he.Iterations, he.Other)
}

// History returns the flash history, oldest first
func (c *Composition) History() (h []HistoryEntry) {
	h = make([]HistoryEntry, len(c.history))
	copy(h, c.history)
	return
}

func (c *Composition) PrintLastFlash() {
	if len(c.history) == 0 {
		fmt.Println("no flash performed")
		return
	}
	fmt.Println(c.history[len(c.history)-1])
}

func (c *Composition) appendHistory(he HistoryEntry) {
	c.history = append(c.history, he)
	if c.HistorySize > 0 && len(c.history) > c.HistorySize {
		c.history = c.history[len(c.history)-c.HistorySize:]
	}
}

func (c *Composition) Subsystem(flash types.FlashType) (sub Subsystem, err error) {
	if !c.initialized {
		err = types.NewError(types.ErrModelLogic, "composition not initialized")
		return
	}
	switch flash {
	case types.FLASH_PT:
		sub = c.PTSubsystem
	case types.FLASH_PH:
		sub = c.PHSubsystem
	default:
		err = types.NewError(types.ErrConfiguration, fmt.Sprintf("unknown flash type %v", flash))
	}
	return
}

/*
IsothermalFlash computes phase fractions and compositions at fixed pressure,
temperature and feed. The result is left in the iterate, and copied to the
state as well on success if copyToState. A failure leaves the state untouched.
*/
func (c *Composition) IsothermalFlash(copyToState bool, guess types.InitialGuess) bool {
	return c.flash(types.FLASH_PT, copyToState, guess)
}

// IsenthalpicFlash is the flash at fixed pressure, specific enthalpy and feed, with the temperature as unknown
func (c *Composition) IsenthalpicFlash(copyToState bool, guess types.InitialGuess) bool {
	return c.flash(types.FLASH_PH, copyToState, guess)
}

func (c *Composition) flash(flash types.FlashType, copyToState bool, guess types.InitialGuess) (success bool) {
	sub, err := c.Subsystem(flash)
	if err != nil {
		c.appendHistory(HistoryEntry{
			Flash:  flash,
			Method: "Newton-min",
			Other:  map[string]string{"error": err.Error()},
		})
		return
	}
	return c.newtonMin(flash, sub, copyToState, guess)
}

/*
newtonMin is Newton's method where the complementarity conditions enter through
the semi-smooth minimum, the active branch may change between iterations.
*/
func (c *Composition) newtonMin(flash types.FlashType, sub Subsystem, copyToState bool,
	guess types.InitialGuess) (success bool) {
	var (
		ls    *ad.LinearSystem
		dx    []float64
		err   error
		iter  int
		other = map[string]string{"initial guess": guess.String()}
	)
	defer func() {
		c.appendHistory(HistoryEntry{
			Flash:      flash,
			Method:     "Newton-min",
			Iterations: iter,
			Success:    success,
			Variables:  append([]string{}, sub.PrimaryVars...),
			Equations:  append([]string{}, sub.Equations...),
			Other:      other,
		})
		if !success {
			log.Printf("%v flash failed after %d iterations: %v", flash, iter, other)
		}
	}()

	if err = c.setInitialGuess(guess); err != nil {
		other["error"] = err.Error()
		return
	}
	if ls, err = c.sys.AssembleSubsystem(sub.Equations, sub.PrimaryVars); err != nil {
		other["error"] = err.Error()
		return
	}
	res := ls.ResidualNorm()
	for {
		if c.Verbose {
			fmt.Printf("Newton-min iteration %4d, residual = %8.6e\n", iter, res)
		}
		if utils.IsNan(ls.Rhs) {
			other["error"] = "non-finite residual"
			return
		}
		if res <= c.Tolerance {
			success = true
			break
		}
		if iter >= c.MaxIter {
			other["error"] = fmt.Sprintf("no convergence, residual = %8.6e", res)
			return
		}
		if dx, err = ls.Solve(); err != nil {
			other["error"] = err.Error()
			return
		}
		if err = c.sys.DistributeVariable(sub.PrimaryVars, dx, true, true); err != nil {
			other["error"] = err.Error()
			return
		}
		iter++
		if ls, err = c.sys.AssembleSubsystem(sub.Equations, sub.PrimaryVars); err != nil {
			other["error"] = err.Error()
			return
		}
		res = ls.ResidualNorm()
	}
	other["residual"] = fmt.Sprintf("%8.6e", res)
	if copyToState {
		c.sys.Commit(sub.PrimaryVars...)
	}
	return
}

func (c *Composition) setInitialGuess(guess types.InitialGuess) (err error) {
	switch guess {
	case types.GUESS_ITERATE:
	case types.GUESS_UNIFORM:
		err = c.uniformGuess()
	case types.GUESS_FEED:
		if len(c.phases) == 2 {
			err = c.feedGuess()
		} else {
			err = c.uniformGuess()
		}
	default:
		err = types.NewError(types.ErrConfiguration, fmt.Sprintf("unknown initial guess %v", guess))
	}
	return
}

func (c *Composition) uniformGuess() (err error) {
	var (
		yVal = utils.ConstArray(c.NCells, 1/float64(len(c.phases)))
	)
	for _, ph := range c.phases {
		if err = c.sys.SetVarValues(ph.FractionName(), yVal, false); err != nil {
			return
		}
		xiVal := utils.ConstArray(c.NCells, 1/float64(ph.NumComponents()))
		for _, comp := range ph.components {
			if err = c.sys.SetVarValues(ph.FractionOfComponentName(comp), xiVal, false); err != nil {
				return
			}
		}
	}
	return
}

/*
feedGuess estimates the equilibrium ratios xi_c2 / xi_c1 of the two phases
with the Wilson correlation at the current pressure and temperature and
solves the Rachford-Rice equation for the fraction of the second phase.
*/
func (c *Composition) feedGuess() (err error) {
	var (
		n    = c.NCells
		nc   = len(c.components)
		ref  = c.phases[0]
		ph   = c.phases[1]
		p    = c.sys.MustGetVarValues(c.PName(), true)
		T    = c.sys.MustGetVarValues(c.TName(), true)
		z    = make([][]float64, nc)
		K    = make([]float64, nc)
		zk   = make([]float64, nc)
		y    = make([]float64, n)
		xiR  = make([][]float64, nc)
		xiPh = make([][]float64, nc)
	)
	for i, comp := range c.components {
		z[i] = c.sys.MustGetVarValues(c.FeedName(comp), true)
		xiR[i] = make([]float64, n)
		xiPh[i] = make([]float64, n)
	}
	for k := 0; k < n; k++ {
		for i, comp := range c.components {
			K[i] = comp.WilsonK(p[k], T[k])
			zk[i] = z[i][k]
		}
		y[k] = RachfordRice(zk, K)
		for i := range c.components {
			xiR[i][k] = zk[i] / (1 + y[k]*(K[i]-1))
			xiPh[i][k] = K[i] * xiR[i][k]
		}
	}
	if err = c.sys.SetVarValues(ph.FractionName(), y, false); err != nil {
		return
	}
	yR := make([]float64, n)
	for k := range yR {
		yR[k] = 1 - y[k]
	}
	if err = c.sys.SetVarValues(ref.FractionName(), yR, false); err != nil {
		return
	}
	for i, comp := range c.components {
		if err = c.sys.SetVarValues(ref.FractionOfComponentName(comp), xiR[i], false); err != nil {
			return
		}
		if err = c.sys.SetVarValues(ph.FractionOfComponentName(comp), xiPh[i], false); err != nil {
			return
		}
	}
	return
}

/*
RachfordRice returns the vapour fraction y in [0,1] solving
sum_c z_c (K_c - 1) / (1 + y (K_c - 1)) = 0 by bisection. Without a root in
(0,1) the bound of the single phase state is returned.
*/
func RachfordRice(z, K []float64) (y float64) {
	f := func(y float64) (r float64) {
		for i := range z {
			r += z[i] * (K[i] - 1) / (1 + y*(K[i]-1))
		}
		return
	}
	switch {
	case f(0) <= 0:
		return 0
	case f(1) >= 0:
		return 1
	}
	lo, hi := 0., 1.
	for hi-lo > 1e-15 {
		y = 0.5 * (lo + hi)
		if f(y) > 0 {
			lo = y
		} else {
			hi = y
		}
	}
	return 0.5 * (lo + hi)
}

/*
LinearizeSubsystem assembles the flash equations plus otherEqns with respect
to the primary variables plus otherVars, at the iterate or at the state. The
Jacobian is returned in sparse form, variable-major (dof = var*NCells + cell),
together with the residual F (equation-major).
*/
func (c *Composition) LinearizeSubsystem(flash types.FlashType, otherVars, otherEqns []string,
	state bool) (A utils.CSR, F []float64, err error) {
	var (
		sub Subsystem
		ls  *ad.LinearSystem
	)
	if sub, err = c.Subsystem(flash); err != nil {
		return
	}
	var (
		eqs  = append(append([]string{}, sub.Equations...), otherEqns...)
		vars = append(append([]string{}, sub.PrimaryVars...), otherVars...)
	)
	if state {
		ls, err = c.sys.AssembleState(eqs, vars)
	} else {
		ls, err = c.sys.AssembleSubsystem(eqs, vars)
	}
	if err != nil {
		return
	}
	A = ls.Global()
	F = ls.Residual()
	return
}
