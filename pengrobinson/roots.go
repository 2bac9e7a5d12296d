package pengrobinson

import (
	"fmt"
	"math"
	"sync"

	"github.com/notargets/goflash/ad"
	"github.com/notargets/goflash/types"
	"github.com/notargets/goflash/utils"
)

// Classification of the cells by the roots of the compressibility polynomial
type Classification struct {
	Regions             []types.RootRegion
	Sets                [4][]int // cell indices per region, indexed by types.RootRegion
	IsSupercritical     []bool
	IsSubPseudoCritical []bool
	IsSubcritical       []bool // inside the triangle below the critical line within (0,A_CRIT)x(0,B_CRIT)
}

// IsExtended flags the cells where the phase uses the extension root of the one-root region
func (cl Classification) IsExtended(gaslike bool) (ext []bool) {
	ext = make([]bool, len(cl.Regions))
	for _, k := range cl.Sets[types.REGION_ONE] {
		if gaslike {
			ext[k] = cl.IsSubPseudoCritical[k]
		} else {
			ext[k] = !cl.IsSubPseudoCritical[k]
		}
	}
	return
}

// ZPolynomial is Z^3 + (B-1) Z^2 + (A-2B-3B^2) Z - (AB-B^2-B^3)
func ZPolynomial(Z, A, B float64) float64 {
	return Z*Z*Z + (B-1)*Z*Z + (A-2*B-3*B*B)*Z - (A*B - B*B - B*B*B)
}

// reduced returns the coefficients of the depressed polynomial and its discriminant
func reduced(A, B float64) (r, q, delta float64) {
	var (
		c2 = B - 1
		c1 = A - 2*B - 3*B*B
		c0 = B*B*B + B*B - A*B
	)
	r = c1 - c2*c2/3
	q = 2./27.*c2*c2*c2 - c2*c1/3 + c0
	delta = q*q/4 + r*r*r/27
	return
}

/*
Classify tags every cell with exactly one root region. The exact critical
point is a triple root and the exact zero point a double root, regardless of
the discriminant.
*/
func (e *EoS) Classify(A, B []float64) (cl Classification, err error) {
	var (
		n   = len(A)
		eps = e.Eps
		np  = e.ParallelDegree
	)
	if np < 1 {
		np = utils.DefaultParallelDegree(n)
	}
	for k := 0; k < n; k++ {
		if utils.IsNan(A[k]) || utils.IsNan(B[k]) {
			err = types.NewError(types.ErrNonFinite, fmt.Sprintf("cell %d: A = %v, B = %v", k, A[k], B[k]))
			return
		}
	}
	var (
		pm         = utils.NewPartitionMap(np, n)
		wg         = sync.WaitGroup{}
		violations = make([]int, pm.ParallelDegree)
	)
	cl = Classification{
		Regions:             make([]types.RootRegion, n),
		IsSupercritical:     make([]bool, n),
		IsSubPseudoCritical: make([]bool, n),
		IsSubcritical:       make([]bool, n),
	}
	for np := 0; np < pm.ParallelDegree; np++ {
		violations[np] = -1
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			kMin, kMax := pm.GetBucketRange(np)
			for k := kMin; k < kMax; k++ {
				a, b := A[k], B[k]
				r, _, delta := reduced(a, b)
				var (
					one    = delta > eps
					three  = delta < -eps
					degen  = delta >= -eps && delta <= eps
					double = degen && (r < -eps || r > eps)
					triple = degen && r >= -eps && r <= eps
					count  int
				)
				for _, in := range [4]bool{one, three, double, triple} {
					if in {
						count++
					}
				}
				if count != 1 {
					violations[np] = k
					return
				}
				switch {
				case one:
					cl.Regions[k] = types.REGION_ONE
				case three:
					cl.Regions[k] = types.REGION_THREE
				case double:
					cl.Regions[k] = types.REGION_DOUBLE
				default:
					cl.Regions[k] = types.REGION_TRIPLE
				}
				switch {
				case math.Abs(a-A_CRIT) <= eps && math.Abs(b-B_CRIT) <= eps:
					cl.Regions[k] = types.REGION_TRIPLE
				case math.Abs(a) <= eps && math.Abs(b) <= eps:
					cl.Regions[k] = types.REGION_DOUBLE
				}
				cl.IsSupercritical[k] = b >= B_CRIT/A_CRIT*a
				cl.IsSubPseudoCritical[k] = b <= B_CRIT+pseudoCriticalSlope*(a-A_CRIT)
				cl.IsSubcritical[k] = !cl.IsSupercritical[k] &&
					a > eps && a < A_CRIT-eps && b > eps && b < B_CRIT-eps
			}
		}(np)
	}
	wg.Wait()
	for _, k := range violations {
		if k >= 0 {
			panic(fmt.Errorf("root regions do not partition cell %d: A = %v, B = %v", k, A[k], B[k]))
		}
	}
	for k, reg := range cl.Regions {
		cl.Sets[reg] = append(cl.Sets[reg], k)
	}
	return
}

/*
ComputeRoots returns the root of the phase label first, then the other root.
The smaller root is the liquid-like one. In the one-root region the missing
root is replaced by an extension built from the real part of the complex
pair, the sub pseudo-critical line decides whether it replaces the liquid or
the gas root.
*/
func (e *EoS) ComputeRoots(A, B ad.Array) (Z, ZOther ad.Array, cl Classification, err error) {
	var (
		n     = A.Len()
		nVars int
		eps   = e.Eps
	)
	switch {
	case A.Jac != nil:
		nVars = A.NVars
	case B.Jac != nil:
		nVars = B.NVars
	}
	if cl, err = e.Classify(A.Val, B.Val); err != nil {
		return
	}

	var (
		c2 = B.AddScalar(-1)
		c1 = A.Sub(B.Scale(2)).Sub(ad.PowInt(B, 2).Scale(3))
		c0 = ad.PowInt(B, 3).Add(ad.PowInt(B, 2)).Sub(A.Mul(B))
		r  = c1.Sub(ad.PowInt(c2, 2).Scale(1. / 3.))
		q  = ad.PowInt(c2, 3).Scale(2. / 27.).Sub(c2.Mul(c1).Scale(1. / 3.)).Add(c0)
		ZL = ad.NewArena(n, nVars)
		ZG = ad.NewArena(n, nVars)
	)

	if idx := cl.Sets[types.REGION_ONE]; len(idx) != 0 {
		var (
			r_, q_, c2_, B_ = r.Take(idx), q.Take(idx), c2.Take(idx), B.Take(idx)
			delta_          = ad.PowInt(q_, 2).Scale(0.25).Add(ad.PowInt(r_, 3).Scale(1. / 27.))
			sgn             = make([]float64, len(idx))
			subPseudo       = make([]bool, len(idx))
		)
		for i, k := range idx {
			sgn[i] = utils.Sign(q_.Val[i])
			subPseudo[i] = cl.IsSubPseudoCritical[k]
		}
		// the root of larger magnitude avoids cancellation
		t := q_.Scale(-0.5).Sub(ad.Sqrt(delta_).Mul(ad.NewConstant(sgn)))
		u := ad.Cbrt(t)
		z1 := u.Sub(r_.Div(u.Scale(3))).Sub(c2_.Scale(1. / 3.))
		w := B_.Add(z1).RSub(1).Scale(0.5).Add(B_).AddScalar(B_CRIT)
		ZL.Put(idx, ad.Where(subPseudo, z1, w))
		ZG.Put(idx, ad.Where(subPseudo, w, z1))
	}

	if idx := cl.Sets[types.REGION_THREE]; len(idx) != 0 {
		var (
			r_, q_, c2_ = r.Take(idx), q.Take(idx), c2.Take(idx)
			shift       = c2_.Scale(1. / 3.)
		)
		t2 := ad.Acos(q_.Scale(-0.5).Mul(ad.Sqrt(ad.PowInt(r_, -3).Scale(-27)))).Scale(1. / 3.)
		t1 := ad.Sqrt(r_.Scale(-4. / 3.))
		z3 := t1.Mul(ad.Cos(t2)).Sub(shift)
		z2 := t1.Mul(ad.Cos(t2.AddScalar(math.Pi / 3))).Neg().Sub(shift)
		z1 := t1.Mul(ad.Cos(t2.AddScalar(-math.Pi / 3))).Neg().Sub(shift)
		if e.Smoothing > 0 {
			smoothable := make([]bool, len(idx))
			for i, k := range idx {
				smoothable[i] = cl.IsSubcritical[k]
			}
			z1s, z3s := smoothRoots(z1, z2, z3, e.Smoothing)
			z1 = ad.Where(smoothable, z1s, z1)
			z3 = ad.Where(smoothable, z3s, z3)
		}
		for i, k := range idx {
			tol := 1e-12 * math.Max(1, math.Abs(z3.Val[i]))
			if z1.Val[i] > z2.Val[i]+tol || z2.Val[i] > z3.Val[i]+tol {
				panic(fmt.Errorf("roots in three-root region improperly ordered in cell %d: %v, %v, %v",
					k, z1.Val[i], z2.Val[i], z3.Val[i]))
			}
		}
		ZL.Put(idx, z1)
		ZG.Put(idx, z3)
	}

	if idx := cl.Sets[types.REGION_TRIPLE]; len(idx) != 0 {
		z := c2.Take(idx).Scale(-1. / 3.)
		for i, k := range idx {
			if z.Val[i] <= B.Val[k] {
				panic(fmt.Errorf("triple root %v violates the lower bound B = %v in cell %d", z.Val[i], B.Val[k], k))
			}
		}
		ZL.Put(idx, z)
		ZG.Put(idx, z)
	}

	if idx := cl.Sets[types.REGION_DOUBLE]; len(idx) != 0 {
		var (
			r_, q_, c2_ = r.Take(idx), q.Take(idx), c2.Take(idx)
			shift       = c2_.Scale(1. / 3.)
			u           = q_.Div(r_).Scale(1.5)
			z1          = u.Scale(2).Sub(shift)
			z23         = u.Neg().Sub(shift)
			singleBig   = make([]bool, len(idx))
		)
		for i := range idx {
			singleBig[i] = z1.Val[i] >= z23.Val[i]
		}
		ZL.Put(idx, ad.Where(singleBig, z23, z1))
		ZG.Put(idx, ad.Where(singleBig, z1, z23))
	}

	// the liquid root is bound from below by B
	belowB := make([]bool, n)
	for k := range belowB {
		belowB[k] = ZL.Val[k] <= B.Val[k]
	}
	ZL = ad.Where(belowB, B.AddScalar(eps), ZL)

	if e.Gaslike {
		return ZG, ZL, cl, nil
	}
	return ZL, ZG, cl, nil
}

/*
smoothRoots blends the liquid and gas roots with the intermediate root where
the intermediate root approaches them. The weights are cubic Hermite steps in
the proximity (z2-z1)/(z3-z1) over the bandwidth s.
*/
func smoothRoots(z1, z2, z3 ad.Array, s float64) (z1s, z3s ad.Array) {
	var (
		n  = z1.Len()
		vL = make([]float64, n)
		vG = make([]float64, n)
	)
	for k := 0; k < n; k++ {
		prox := (z2.Val[k] - z1.Val[k]) / (z3.Val[k] - z1.Val[k])
		vG[k] = gasWeight(prox, s)
		vL[k] = liquidWeight(prox, s)
	}
	var (
		wL = ad.NewConstant(vL)
		wG = ad.NewConstant(vG)
	)
	z1s = z1.Mul(wL.RSub(1)).Add(z1.Add(z2).Scale(0.5).Mul(wL))
	z3s = z3.Mul(wG.RSub(1)).Add(z2.Add(z3).Scale(0.5).Mul(wG))
	return
}

func gasWeight(prox, s float64) float64 {
	switch {
	case prox >= 1-s:
		return 1
	case prox > 1-2*s:
		t := (prox - (1 - 2*s)) / s
		return t * t * (3 - 2*t)
	}
	return 0
}

func liquidWeight(prox, s float64) float64 {
	switch {
	case prox <= s:
		return 1
	case prox < 2*s:
		t := (prox - s) / s
		return 1 - t*t*(3-2*t)
	}
	return 0
}
