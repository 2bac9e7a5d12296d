package ad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/notargets/goflash/types"
)

func TestArrayOperators(t *testing.T) {
	var (
		x0 = []float64{0.3, 0.7, 1.9}
	)
	check := func(name string, op func(a Array) Array, f func(x float64) float64) {
		a := NewVariable(x0, 0, 1)
		r := op(a)
		for k, x := range x0 {
			assert.InDeltaf(t, f(x), r.Val[k], 1e-14, "%s value at %v", name, x)
			d := fd.Derivative(f, x, &fd.Settings{Formula: fd.Central})
			assert.InDeltaf(t, d, r.Jac[k], 1e-6, "%s derivative at %v", name, x)
		}
	}
	{ // Test unary functions against central differences
		check("log", Log, math.Log)
		check("exp", Exp, math.Exp)
		check("sqrt", Sqrt, math.Sqrt)
		check("cbrt", Cbrt, math.Cbrt)
		check("cos", Cos, math.Cos)
		check("pow", func(a Array) Array { return Pow(a, -1.5) }, func(x float64) float64 { return math.Pow(x, -1.5) })
		check("powint", func(a Array) Array { return PowInt(a, 3) }, func(x float64) float64 { return x * x * x })
		check("rsub", func(a Array) Array { return a.RSub(2) }, func(x float64) float64 { return 2 - x })
		check("rdiv", func(a Array) Array { return a.RDiv(2) }, func(x float64) float64 { return 2 / x })
		check("scale", func(a Array) Array { return a.Scale(3).AddScalar(1) }, func(x float64) float64 { return 3*x + 1 })
	}
	{ // Test acos inside its domain
		a := NewVariable([]float64{-0.5, 0.2}, 0, 1)
		r := Acos(a)
		for k, x := range a.Val {
			assert.InDelta(t, math.Acos(x), r.Val[k], 1e-14)
			assert.InDelta(t, -1/math.Sqrt(1-x*x), r.Jac[k], 1e-14)
		}
	}
	{ // Test binary operators and the chain rule over two variables
		a := NewVariable([]float64{2, 3}, 0, 2)
		b := NewVariable([]float64{5, 7}, 1, 2)
		r := a.Mul(b).Div(a.Add(b)).Sub(Log(b))
		for k := range a.Val {
			x, y := a.Val[k], b.Val[k]
			f := func(v []float64) float64 { return v[0]*v[1]/(v[0]+v[1]) - math.Log(v[1]) }
			assert.InDelta(t, f([]float64{x, y}), r.Val[k], 1e-14)
			grad := make([]float64, 2)
			fd.Gradient(grad, f, []float64{x, y}, nil)
			assert.InDeltaSlice(t, grad, r.Row(k, 2), 1e-6)
		}
		// constants carry no derivatives
		c := NewConstant([]float64{1, 1}).Add(Scalar(2, 1))
		assert.True(t, c.IsConstant())
		assert.Equal(t, []float64{0, 0}, c.Row(0, 2))
		mixed := c.Mul(a)
		assert.False(t, mixed.IsConstant())
		assert.Equal(t, []float64{2, 2}, mixed.Derivative(0))
		assert.Equal(t, []float64{0, 0}, mixed.Derivative(1))
	}
	{ // Test semi-smooth min and max, ties take the first argument
		a := NewVariable([]float64{1, 2, 3}, 0, 2)
		b := NewVariable([]float64{2, 2, 1}, 1, 2)
		m := Min(a, b)
		assert.Equal(t, []float64{1, 2, 1}, m.Val)
		assert.Equal(t, []float64{1, 0}, m.Row(0, 2))
		assert.Equal(t, []float64{1, 0}, m.Row(1, 2))
		assert.Equal(t, []float64{0, 1}, m.Row(2, 2))
		M := Max(a, b)
		assert.Equal(t, []float64{2, 2, 3}, M.Val)
		assert.Equal(t, []float64{0, 1}, M.Row(0, 2))
		assert.Equal(t, []float64{1, 0}, M.Row(1, 2))
		s := Sum(3, a, b, Scalar(3, 1))
		assert.Equal(t, []float64{4, 5, 5}, s.Val)
		assert.Equal(t, []float64{1, 1}, s.Row(2, 2))
	}
	{ // Test restriction and prolongation
		a := NewVariable([]float64{10, 20, 30, 40}, 0, 1)
		part := a.Take([]int{3, 1}).Scale(2)
		assert.Equal(t, []float64{80, 40}, part.Val)
		arena := NewArena(4, 1)
		arena.Put([]int{3, 1}, part)
		arena.Put([]int{0}, Scalar(1, -1))
		assert.Equal(t, []float64{-1, 40, 0, 80}, arena.Val)
		assert.Equal(t, []float64{0, 2, 0, 2}, arena.Derivative(0))
		assert.Panics(t, func() { arena.Put([]int{0, 1}, Scalar(1, 0)) })
		assert.Panics(t, func() { NewConstant([]float64{1}).Put([]int{0}, a.Take([]int{0})) })
		assert.Panics(t, func() { a.Add(Scalar(3, 1)) })
		cp := a.Copy()
		cp.Val[0] = 0
		assert.Equal(t, 10., a.Val[0])
	}
}

func TestSystem(t *testing.T) {
	var (
		sys = NewSystem(2)
	)
	require.NoError(t, sys.CreateVariable("x", 3))
	require.NoError(t, sys.CreateVariable("y", 3))
	require.NoError(t, sys.CreateVariable("c"))
	assert.ErrorIs(t, sys.CreateVariable("x"), types.ErrConfiguration)
	require.NoError(t, sys.SetVarValues("c", []float64{2, 6}, true))
	assert.ErrorIs(t, sys.SetVarValues("c", []float64{2}, true), types.ErrDimensionMismatch)
	assert.ErrorIs(t, sys.SetVarValues("z", []float64{2, 2}, true), types.ErrUnknownVariable)
	// x^2 + y - c = 0, x - y = 0
	sys.SetEquation("quad", func(ctx *Context) Array {
		x := ctx.Var("x")
		return x.Mul(x).Add(ctx.Var("y")).Sub(ctx.Var("c"))
	})
	sys.SetEquation("diag", func(ctx *Context) Array {
		return ctx.Var("x").Sub(ctx.Var("y"))
	})
	vars := []string{"x", "y"}
	eqs := []string{"quad", "diag"}
	{ // Test assembly layout
		ls, err := sys.AssembleSubsystem(eqs, vars)
		require.NoError(t, err)
		assert.Equal(t, []float64{-10, -6, 0, 0}, ls.Rhs)
		assert.Equal(t, 10., ls.ResidualNorm())
		assert.Equal(t, []float64{6, 1, 1, -1}, ls.Blocks[0].Data())
		A := ls.Global()
		nr, nc := A.Dims()
		assert.Equal(t, 4, nr)
		assert.Equal(t, 4, nc)
		// row quad of cell 1 couples to x and y of cell 1 only
		assert.Equal(t, 6., A.At(1, 1))
		assert.Equal(t, 1., A.At(1, 3))
		assert.Equal(t, 0., A.At(1, 0))
		assert.Equal(t, -1., A.At(3, 3))
		assert.Equal(t, []float64{10, 6, 0, 0}, ls.Residual())
		// more partitions than cells
		ls.ParallelDegree = 8
		dx, err := ls.Solve()
		require.NoError(t, err)
		ls.ParallelDegree = 1
		dx1, err := ls.Solve()
		require.NoError(t, err)
		assert.Equal(t, dx1, dx)
	}
	{ // Test Newton iteration on the iterate only
		var converged bool
		for it := 0; it < 50; it++ {
			ls, err := sys.AssembleSubsystem(eqs, vars)
			require.NoError(t, err)
			if ls.ResidualNorm() <= 1e-12 {
				converged = true
				break
			}
			dx, err := ls.Solve()
			require.NoError(t, err)
			require.NoError(t, sys.DistributeVariable(vars, dx, true, true))
		}
		assert.True(t, converged)
		assert.InDeltaSlice(t, []float64{1, 2}, sys.MustGetVarValues("x", true), 1e-10)
		// state untouched until commit
		assert.Equal(t, []float64{3, 3}, sys.MustGetVarValues("x", false))
		sys.Commit(vars...)
		assert.InDeltaSlice(t, []float64{1, 2}, sys.MustGetVarValues("y", false), 1e-10)
		x, err := sys.AssembleVariable(vars, false)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{1, 2, 1, 2}, x, 1e-10)
		require.NoError(t, sys.DistributeVariable(vars, []float64{5, 5, 5, 5}, false, true))
		assert.Equal(t, []float64{5, 5}, sys.MustGetVarValues("y", true))
		sys.Reset(vars...)
		assert.InDeltaSlice(t, []float64{1, 2}, sys.MustGetVarValues("y", true), 1e-10)
		assert.ErrorIs(t, sys.DistributeVariable(vars, []float64{1}, true, true), types.ErrDimensionMismatch)
	}
	{ // Test singular blocks and malformed requests
		sys.SetEquation("copy", func(ctx *Context) Array {
			return ctx.Var("x").Sub(ctx.Var("y")).Scale(2)
		})
		ls, err := sys.AssembleSubsystem([]string{"diag", "copy"}, vars)
		require.NoError(t, err)
		_, err = ls.Solve()
		assert.ErrorIs(t, err, types.ErrSingularSystem)
		ls, err = sys.AssembleSubsystem([]string{"diag"}, vars)
		require.NoError(t, err)
		_, err = ls.Solve()
		assert.ErrorIs(t, err, types.ErrDimensionMismatch)
		_, err = sys.AssembleSubsystem([]string{"missing"}, vars)
		assert.ErrorIs(t, err, types.ErrUnknownVariable)
		_, err = sys.AssembleSubsystem(eqs, []string{"x", "x"})
		assert.ErrorIs(t, err, types.ErrConfiguration)
		sys.SetEquation("failing", func(ctx *Context) Array {
			ctx.Fail(types.NewError(types.ErrNonFinite, "failing"))
			ctx.Fail(types.NewError(types.ErrModelLogic, "second"))
			return ctx.Var("x")
		})
		ls, err = sys.AssembleSubsystem([]string{"diag", "failing"}, vars)
		assert.ErrorIs(t, err, types.ErrNonFinite)
		assert.Nil(t, ls)
		sys.RemoveEquation("failing")
		sys.RemoveEquation("copy")
		assert.Equal(t, []string{"quad", "diag"}, sys.EquationNames())
	}
	{ // Test values only evaluation is constant
		vals := sys.Evaluate(func(ctx *Context) Array {
			r := ctx.Var("x").Add(ctx.Var("c"))
			assert.True(t, r.IsConstant())
			return r
		}, false)
		assert.InDeltaSlice(t, []float64{3, 8}, vals, 1e-10)
	}
}

func TestWhere(t *testing.T) {
	a := NewVariable([]float64{1, 2, 3}, 0, 2)
	b := Scalar(3, -1)
	w := Where([]bool{true, false, true}, a, b)
	assert.Equal(t, []float64{1, -1, 3}, w.Val)
	assert.Equal(t, []float64{1, 0, 1}, w.Derivative(0))
	assert.Equal(t, []float64{0, 0, 0}, w.Derivative(1))
	c := Where([]bool{false, false, false}, b, b)
	assert.True(t, c.IsConstant())
	assert.Panics(t, func() { Where([]bool{true}, a, b) })
}
