package ad

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/goflash/types"
	"github.com/notargets/goflash/utils"
)

/*
LinearSystem is the linearization A dx = b of a set of equations with
b = -F. The Jacobian is block diagonal over cells, Blocks[k] holds the
equations x variables block of cell k. Rhs is equation-major
(row = e*NCells + k), solutions are variable-major (dof = v*NCells + k).
*/
type LinearSystem struct {
	NCells         int
	Equations      []string
	Variables      []string
	Blocks         []utils.Matrix
	Rhs            []float64
	ParallelDegree int
}

// ResidualNorm is the maximum norm of the residual
func (ls *LinearSystem) ResidualNorm() float64 {
	if len(ls.Rhs) == 0 {
		return 0
	}
	return floats.Norm(ls.Rhs, math.Inf(1))
}

// Solve solves every cell block in parallel
func (ls *LinearSystem) Solve() (dx []float64, err error) {
	var (
		nCell = ls.NCells
		nEq   = len(ls.Equations)
		nVar  = len(ls.Variables)
		pm    = utils.NewPartitionMap(ls.ParallelDegree, nCell)
		wg    = sync.WaitGroup{}
		errs  = make([]error, pm.ParallelDegree)
	)
	if nEq != nVar {
		err = types.NewError(types.ErrDimensionMismatch,
			fmt.Sprintf("%d equations for %d variables", nEq, nVar))
		return
	}
	dx = make([]float64, nVar*nCell)
	for np := 0; np < pm.ParallelDegree; np++ {
		if pm.GetBucketDimension(np) == 0 {
			continue
		}
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			kMin, kMax := pm.GetBucketRange(np)
			b := make([]float64, nEq)
			for k := kMin; k < kMax; k++ {
				for e := 0; e < nEq; e++ {
					b[e] = ls.Rhs[e*nCell+k]
				}
				x, lerr := ls.Blocks[k].LUSolve(b)
				if lerr == nil && utils.IsNan(x) {
					lerr = fmt.Errorf("non-finite solution")
				}
				if lerr != nil {
					errs[np] = types.NewError(types.ErrSingularSystem, fmt.Sprintf("cell %d: %v", k, lerr))
					return
				}
				for v := 0; v < nVar; v++ {
					dx[v*nCell+k] = x[v]
				}
			}
		}(np)
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			err = e
			return
		}
	}
	return
}

// Global returns the Jacobian in sparse form over the global dof ordering
func (ls *LinearSystem) Global() (A utils.CSR) {
	var (
		nCell = ls.NCells
		nEq   = len(ls.Equations)
		nVar  = len(ls.Variables)
		S     = utils.NewDOK(nEq*nCell, nVar*nCell)
		rows  = make([]int, nEq)
		cols  = make([]int, nVar)
	)
	for k := 0; k < nCell; k++ {
		for e := range rows {
			rows[e] = e*nCell + k
		}
		for v := range cols {
			cols[v] = v*nCell + k
		}
		if err := S.AssignBlock(rows, cols, ls.Blocks[k].Data()); err != nil {
			panic(err)
		}
	}
	A = S.ToCSR()
	return
}

// Residual returns F = -b, in equation-major order
func (ls *LinearSystem) Residual() (F []float64) {
	F = make([]float64, len(ls.Rhs))
	floats.ScaleTo(F, -1, ls.Rhs)
	return
}
