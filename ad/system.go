package ad

import (
	"fmt"
	"sort"

	"github.com/notargets/goflash/types"
	"github.com/notargets/goflash/utils"
)

// Equation evaluates the left hand side of an equation (rhs = 0) in a context
type Equation func(ctx *Context) Array

/*
System stores cell-wise variables by name in two buffers, the current
iterate and the committed state, plus a set of named equations.
Derivatives are cell-local: each variable couples only to variables of the
same cell.
*/
type System struct {
	NCells         int
	ParallelDegree int
	varNames       []string
	iterate        map[string][]float64
	state          map[string][]float64
	eqNames        []string
	equations      map[string]Equation
}

func NewSystem(nCells int) (s *System) {
	s = &System{
		NCells:         nCells,
		ParallelDegree: utils.DefaultParallelDegree(nCells),
		iterate:        make(map[string][]float64),
		state:          make(map[string][]float64),
		equations:      make(map[string]Equation),
	}
	return
}

// CreateVariable allocates a variable, both buffers are set to init (zero if omitted)
func (s *System) CreateVariable(name string, init ...float64) (err error) {
	if _, ok := s.iterate[name]; ok {
		err = types.NewError(types.ErrConfiguration, fmt.Sprintf("variable %q exists", name))
		return
	}
	var val float64
	if len(init) != 0 {
		val = init[0]
	}
	s.varNames = append(s.varNames, name)
	s.iterate[name] = utils.ConstArray(s.NCells, val)
	s.state[name] = utils.ConstArray(s.NCells, val)
	return
}

func (s *System) HasVariable(name string) (ok bool) {
	_, ok = s.iterate[name]
	return
}

func (s *System) VariableNames() (names []string) {
	names = make([]string, len(s.varNames))
	copy(names, s.varNames)
	return
}

// SetVarValues writes the iterate, and the state as well if copyToState
func (s *System) SetVarValues(name string, vals []float64, copyToState bool) (err error) {
	it, ok := s.iterate[name]
	if !ok {
		return types.NewError(types.ErrUnknownVariable, name)
	}
	if len(vals) != s.NCells {
		return types.NewError(types.ErrDimensionMismatch,
			fmt.Sprintf("variable %q has %d cells, got %d values", name, s.NCells, len(vals)))
	}
	copy(it, vals)
	if copyToState {
		copy(s.state[name], vals)
	}
	return
}

// GetVarValues returns a copy of the iterate or the state
func (s *System) GetVarValues(name string, fromIterate bool) (vals []float64, err error) {
	var (
		src map[string][]float64
	)
	if fromIterate {
		src = s.iterate
	} else {
		src = s.state
	}
	v, ok := src[name]
	if !ok {
		err = types.NewError(types.ErrUnknownVariable, name)
		return
	}
	vals = make([]float64, len(v))
	copy(vals, v)
	return
}

// MustGetVarValues is used where the variable is known to exist
func (s *System) MustGetVarValues(name string, fromIterate bool) []float64 {
	vals, err := s.GetVarValues(name, fromIterate)
	if err != nil {
		panic(err)
	}
	return vals
}

// Commit copies the iterate of the named variables into the state
func (s *System) Commit(names ...string) {
	for _, name := range names {
		if it, ok := s.iterate[name]; ok {
			copy(s.state[name], it)
		}
	}
}

// Reset copies the state of the named variables into the iterate
func (s *System) Reset(names ...string) {
	for _, name := range names {
		if st, ok := s.state[name]; ok {
			copy(s.iterate[name], st)
		}
	}
}

func (s *System) SetEquation(name string, eq Equation) {
	if _, ok := s.equations[name]; !ok {
		s.eqNames = append(s.eqNames, name)
	}
	s.equations[name] = eq
}

func (s *System) GetEquation(name string) (eq Equation, err error) {
	var ok bool
	if eq, ok = s.equations[name]; !ok {
		err = types.NewError(types.ErrUnknownVariable, "equation "+name)
	}
	return
}

func (s *System) EquationNames() (names []string) {
	names = make([]string, len(s.eqNames))
	copy(names, s.eqNames)
	return
}

func (s *System) RemoveEquation(name string) {
	if _, ok := s.equations[name]; !ok {
		return
	}
	delete(s.equations, name)
	for i, n := range s.eqNames {
		if n == name {
			s.eqNames = append(s.eqNames[:i], s.eqNames[i+1:]...)
			break
		}
	}
}

// NewContext activates vars as the differentiation variables, in the given order
func (s *System) NewContext(vars []string, fromIterate bool) (ctx *Context, err error) {
	ctx = &Context{
		sys:         s,
		cols:        make(map[string]int, len(vars)),
		nVars:       len(vars),
		fromIterate: fromIterate,
		Cache:       make(map[string]any),
	}
	for j, name := range vars {
		if !s.HasVariable(name) {
			err = types.NewError(types.ErrUnknownVariable, name)
			return
		}
		if _, dup := ctx.cols[name]; dup {
			err = types.NewError(types.ErrConfiguration, fmt.Sprintf("variable %q listed twice", name))
			return
		}
		ctx.cols[name] = j
	}
	return
}

// Evaluate computes values only, no variable is active
func (s *System) Evaluate(eq Equation, fromIterate bool) (vals []float64) {
	ctx, _ := s.NewContext(nil, fromIterate)
	return eq(ctx).Val
}

// AssembleSubsystem linearizes the named equations at the iterate w.r.t. vars
func (s *System) AssembleSubsystem(eqs, vars []string) (ls *LinearSystem, err error) {
	return s.assemble(eqs, vars, true)
}

// AssembleState linearizes at the committed state instead of the iterate
func (s *System) AssembleState(eqs, vars []string) (ls *LinearSystem, err error) {
	return s.assemble(eqs, vars, false)
}

func (s *System) assemble(eqs, vars []string, fromIterate bool) (ls *LinearSystem, err error) {
	var (
		ctx   *Context
		nEq   = len(eqs)
		nVar  = len(vars)
		nCell = s.NCells
	)
	if nEq == 0 || nVar == 0 || nCell == 0 {
		err = types.NewError(types.ErrDimensionMismatch,
			fmt.Sprintf("empty linearization: %d equations, %d variables, %d cells", nEq, nVar, nCell))
		return
	}
	if ctx, err = s.NewContext(vars, fromIterate); err != nil {
		return
	}
	ls = &LinearSystem{
		NCells:         nCell,
		Equations:      append([]string{}, eqs...),
		Variables:      append([]string{}, vars...),
		Blocks:         make([]utils.Matrix, nCell),
		Rhs:            make([]float64, nEq*nCell),
		ParallelDegree: s.ParallelDegree,
	}
	for k := range ls.Blocks {
		ls.Blocks[k] = utils.NewMatrix(nEq, nVar)
	}
	for e, name := range eqs {
		var eq Equation
		if eq, err = s.GetEquation(name); err != nil {
			return
		}
		res := eq(ctx)
		if err = ctx.Err(); err != nil {
			ls = nil
			return
		}
		if res.Len() != nCell {
			panic(fmt.Errorf("equation %q evaluates to %d cells, system has %d", name, res.Len(), nCell))
		}
		for k := 0; k < nCell; k++ {
			ls.Rhs[e*nCell+k] = -res.Val[k]
			if res.Jac != nil {
				ls.Blocks[k].SetRow(e, res.Jac[k*nVar:(k+1)*nVar])
			}
		}
	}
	return
}

/*
DistributeVariable writes a variable-major vector (dof = v*NCells + k) into the
named variables, either added to or replacing the current values, into the
iterate or into the state.
*/
func (s *System) DistributeVariable(vars []string, dx []float64, additive, toIterate bool) (err error) {
	var (
		n   = s.NCells
		dst map[string][]float64
	)
	if len(dx) != len(vars)*n {
		return types.NewError(types.ErrDimensionMismatch,
			fmt.Sprintf("vector of length %d for %d variables of %d cells", len(dx), len(vars), n))
	}
	if toIterate {
		dst = s.iterate
	} else {
		dst = s.state
	}
	for v, name := range vars {
		vals, ok := dst[name]
		if !ok {
			return types.NewError(types.ErrUnknownVariable, name)
		}
		for k := 0; k < n; k++ {
			if additive {
				vals[k] += dx[v*n+k]
			} else {
				vals[k] = dx[v*n+k]
			}
		}
	}
	return
}

// AssembleVariable is the inverse of DistributeVariable
func (s *System) AssembleVariable(vars []string, fromIterate bool) (x []float64, err error) {
	var (
		n = s.NCells
	)
	x = make([]float64, len(vars)*n)
	for v, name := range vars {
		var vals []float64
		if vals, err = s.GetVarValues(name, fromIterate); err != nil {
			return
		}
		copy(x[v*n:(v+1)*n], vals)
	}
	return
}

func (s *System) String() string {
	names := s.VariableNames()
	sort.Strings(names)
	return fmt.Sprintf("System: %d cells, %d variables %v, %d equations %v",
		s.NCells, len(names), names, len(s.eqNames), s.eqNames)
}

// Context carries the active variables of one evaluation and a cache valid for that evaluation
type Context struct {
	sys         *System
	cols        map[string]int
	nVars       int
	fromIterate bool
	err         error
	Cache       map[string]any
}

// Fail records the first error of an evaluation, the assembly returns it instead of a linear system
func (c *Context) Fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *Context) Err() error { return c.err }

func (c *Context) NCells() int { return c.sys.NCells }
func (c *Context) NVars() int  { return c.nVars }

func (c *Context) IsActive(name string) (ok bool) {
	_, ok = c.cols[name]
	return
}

// Var returns the variable with seeded derivatives if active, else as a constant
func (c *Context) Var(name string) Array {
	var (
		src = c.sys.state
	)
	if c.fromIterate {
		src = c.sys.iterate
	}
	vals, ok := src[name]
	if !ok {
		panic(types.NewError(types.ErrUnknownVariable, name))
	}
	if col, active := c.cols[name]; active {
		return NewVariable(vals, col, c.nVars)
	}
	return NewConstant(vals)
}

func (c *Context) Scalar(val float64) Array { return Scalar(c.sys.NCells, val) }
