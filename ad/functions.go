package ad

import (
	"fmt"
	"math"

	"github.com/notargets/goflash/utils"
)

func Log(a Array) Array {
	return unary(a, func(x float64) (float64, float64) { return math.Log(x), 1 / x })
}

func Exp(a Array) Array {
	return unary(a, func(x float64) (float64, float64) {
		e := math.Exp(x)
		return e, e
	})
}

func Sqrt(a Array) Array {
	return unary(a, func(x float64) (float64, float64) {
		s := math.Sqrt(x)
		return s, 0.5 / s
	})
}

func Cbrt(a Array) Array {
	return unary(a, func(x float64) (float64, float64) {
		c := math.Cbrt(x)
		return c, 1 / (3 * c * c)
	})
}

func Cos(a Array) Array {
	return unary(a, func(x float64) (float64, float64) { return math.Cos(x), -math.Sin(x) })
}

func Acos(a Array) Array {
	return unary(a, func(x float64) (float64, float64) {
		return math.Acos(x), -1 / math.Sqrt(1-x*x)
	})
}

// Pow raises to a real exponent
func Pow(a Array, e float64) Array {
	return unary(a, func(x float64) (float64, float64) {
		return math.Pow(x, e), e * math.Pow(x, e-1)
	})
}

// PowInt is exact for small integer exponents
func PowInt(a Array, p int) Array {
	return unary(a, func(x float64) (float64, float64) {
		if p == 0 {
			return 1, 0
		}
		return utils.POW(x, p), float64(p) * utils.POW(x, p-1)
	})
}

/*
Min is the semi-smooth minimum, the derivative is taken from the active
argument and the first argument is active on ties.
*/
func Min(a, b Array) Array {
	return binary(a, b, func(x, y float64) (float64, float64, float64) {
		if x <= y {
			return x, 1, 0
		}
		return y, 0, 1
	})
}

// Max is the semi-smooth maximum, first argument active on ties
func Max(a, b Array) Array {
	return binary(a, b, func(x, y float64) (float64, float64, float64) {
		if x >= y {
			return x, 1, 0
		}
		return y, 0, 1
	})
}

func Sum(n int, terms ...Array) (R Array) {
	R = Scalar(n, 0)
	for _, t := range terms {
		R = R.Add(t)
	}
	return
}

// Where takes cell k from a if mask[k], else from b
func Where(mask []bool, a, b Array) (R Array) {
	var (
		n  = a.Len()
		nv = a.NVars
	)
	if len(mask) != n || b.Len() != n {
		panic(fmt.Errorf("mask length %d for arrays of length %d and %d", len(mask), n, b.Len()))
	}
	if a.Jac == nil {
		nv = b.NVars
	}
	R = Array{Val: make([]float64, n), NVars: nv}
	if a.Jac != nil || b.Jac != nil {
		R.Jac = make([]float64, n*nv)
	}
	for k, takeA := range mask {
		src := b
		if takeA {
			src = a
		}
		R.Val[k] = src.Val[k]
		if R.Jac != nil && src.Jac != nil {
			copy(R.Jac[k*nv:(k+1)*nv], src.Jac[k*nv:(k+1)*nv])
		}
	}
	return
}
