package ad

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

/*
Array is a cell-wise value with its cell-local derivatives.
Val holds one value per cell, Jac is a row-major len(Val) x NVars block where
row k is the gradient of Val[k] with respect to the active variables of cell k.
A nil Jac denotes a constant, its derivatives are zero.
*/
type Array struct {
	Val   []float64
	Jac   []float64
	NVars int
}

func NewConstant(vals []float64) (R Array) {
	R = Array{Val: make([]float64, len(vals))}
	copy(R.Val, vals)
	return
}

func Scalar(n int, val float64) (R Array) {
	R = Array{Val: make([]float64, n)}
	for i := range R.Val {
		R.Val[i] = val
	}
	return
}

// NewVariable seeds the derivative of column col with one
func NewVariable(vals []float64, col, nVars int) (R Array) {
	if col < 0 || col >= nVars {
		panic(fmt.Errorf("variable column %d out of range [0,%d)", col, nVars))
	}
	R = Array{
		Val:   make([]float64, len(vals)),
		Jac:   make([]float64, len(vals)*nVars),
		NVars: nVars,
	}
	copy(R.Val, vals)
	for k := range vals {
		R.Jac[k*nVars+col] = 1
	}
	return
}

// NewArena allocates a zero array with derivative storage, used as a target for Put
func NewArena(n, nVars int) (R Array) {
	R = Array{Val: make([]float64, n), NVars: nVars}
	if nVars > 0 {
		R.Jac = make([]float64, n*nVars)
	}
	return
}

func (a Array) Len() int          { return len(a.Val) }
func (a Array) IsConstant() bool  { return a.Jac == nil }
func (a Array) At(k int) float64  { return a.Val[k] }
func (a Array) Values() []float64 { return floats.ScaleTo(make([]float64, len(a.Val)), 1, a.Val) }

// Row returns the gradient of cell k, zero for constants
func (a Array) Row(k, nVars int) (row []float64) {
	row = make([]float64, nVars)
	if a.Jac != nil {
		copy(row, a.Jac[k*a.NVars:(k+1)*a.NVars])
	}
	return
}

// Derivative returns the column of derivatives with respect to active variable col
func (a Array) Derivative(col int) (d []float64) {
	d = make([]float64, len(a.Val))
	if a.Jac == nil {
		return
	}
	for k := range d {
		d[k] = a.Jac[k*a.NVars+col]
	}
	return
}

func (a Array) Copy() (R Array) {
	R = Array{Val: make([]float64, len(a.Val)), NVars: a.NVars}
	copy(R.Val, a.Val)
	if a.Jac != nil {
		R.Jac = make([]float64, len(a.Jac))
		copy(R.Jac, a.Jac)
	}
	return
}

func (a Array) Add(b Array) Array {
	return binary(a, b, func(x, y float64) (float64, float64, float64) { return x + y, 1, 1 })
}

func (a Array) Sub(b Array) Array {
	return binary(a, b, func(x, y float64) (float64, float64, float64) { return x - y, 1, -1 })
}

func (a Array) Mul(b Array) Array {
	return binary(a, b, func(x, y float64) (float64, float64, float64) { return x * y, y, x })
}

func (a Array) Div(b Array) Array {
	return binary(a, b, func(x, y float64) (float64, float64, float64) {
		return x / y, 1 / y, -x / (y * y)
	})
}

func (a Array) AddScalar(s float64) Array {
	return unary(a, func(x float64) (float64, float64) { return x + s, 1 })
}

func (a Array) Scale(s float64) Array {
	return unary(a, func(x float64) (float64, float64) { return s * x, s })
}

func (a Array) Neg() Array { return a.Scale(-1) }

// RSub returns s - a
func (a Array) RSub(s float64) Array {
	return unary(a, func(x float64) (float64, float64) { return s - x, -1 })
}

// RDiv returns s / a
func (a Array) RDiv(s float64) Array {
	return unary(a, func(x float64) (float64, float64) { return s / x, -s / (x * x) })
}

func (a Array) Take(idx []int) (R Array) {
	R = Array{Val: make([]float64, len(idx)), NVars: a.NVars}
	if a.Jac != nil {
		R.Jac = make([]float64, len(idx)*a.NVars)
	}
	for i, k := range idx {
		R.Val[i] = a.Val[k]
		if a.Jac != nil {
			copy(R.Jac[i*a.NVars:(i+1)*a.NVars], a.Jac[k*a.NVars:(k+1)*a.NVars])
		}
	}
	return
}

// Put scatters part into the cells idx of the receiver
func (a Array) Put(idx []int, part Array) Array { // Changes receiver
	if len(idx) != part.Len() {
		panic(fmt.Errorf("length of index and values are not equal: len(I) = %v, len(Val) = %v", len(idx), part.Len()))
	}
	if part.Jac != nil && a.Jac == nil {
		panic(fmt.Errorf("unable to put a differentiated part into a constant array"))
	}
	for i, k := range idx {
		a.Val[k] = part.Val[i]
		if a.Jac == nil {
			continue
		}
		row := a.Jac[k*a.NVars : (k+1)*a.NVars]
		if part.Jac == nil {
			floats.Scale(0, row)
		} else {
			copy(row, part.Jac[i*part.NVars:(i+1)*part.NVars])
		}
	}
	return a
}

func unary(a Array, f func(x float64) (val, deriv float64)) (R Array) {
	var (
		n  = len(a.Val)
		nv = a.NVars
	)
	R = Array{Val: make([]float64, n), NVars: nv}
	if a.Jac != nil {
		R.Jac = make([]float64, n*nv)
	}
	for k, x := range a.Val {
		val, d := f(x)
		R.Val[k] = val
		if a.Jac != nil {
			floats.ScaleTo(R.Jac[k*nv:(k+1)*nv], d, a.Jac[k*nv:(k+1)*nv])
		}
	}
	return
}

func binary(a, b Array, f func(x, y float64) (val, dx, dy float64)) (R Array) {
	var (
		n  = len(a.Val)
		nv int
	)
	if len(b.Val) != n {
		panic(fmt.Errorf("array length mismatch: %d and %d", n, len(b.Val)))
	}
	switch {
	case a.Jac != nil && b.Jac != nil:
		if a.NVars != b.NVars {
			panic(fmt.Errorf("jacobian width mismatch: %d and %d", a.NVars, b.NVars))
		}
		nv = a.NVars
	case a.Jac != nil:
		nv = a.NVars
	case b.Jac != nil:
		nv = b.NVars
	}
	R = Array{Val: make([]float64, n), NVars: nv}
	if a.Jac != nil || b.Jac != nil {
		R.Jac = make([]float64, n*nv)
	}
	for k := 0; k < n; k++ {
		val, dx, dy := f(a.Val[k], b.Val[k])
		R.Val[k] = val
		if R.Jac == nil {
			continue
		}
		row := R.Jac[k*nv : (k+1)*nv]
		if a.Jac != nil {
			floats.AddScaled(row, dx, a.Jac[k*nv:(k+1)*nv])
		}
		if b.Jac != nil {
			floats.AddScaled(row, dy, b.Jac[k*nv:(k+1)*nv])
		}
	}
	return
}
