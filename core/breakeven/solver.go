// Package breakeven finds the storage purchase price at which a project's
// net present value crosses zero, by bisection on cost per kWh.
package breakeven

import (
	"errors"
	"fmt"
	"math"

	"github.com/aduval/bessplan/core/econ"
)

// ErrNoConvergence reports a failed search: a violated bracket precondition
// or an exhausted iteration budget. It is distinct from a legitimate
// break-even price of zero.
var ErrNoConvergence = errors.New("break-even search did not converge")

// NPVFunc maps a candidate cost per kWh to the project NPV. It must be
// non-increasing in the cost.
type NPVFunc func(costPerKWh float64) float64

// FromCashFlows builds the callback for a fixed annual-savings stream:
// only the investment term varies with the candidate price.
func FromCashFlows(rate float64, flows []float64, capacityKWh float64) NPVFunc {
	pv := econ.PresentValue(rate, flows)
	return func(costPerKWh float64) float64 {
		return pv - costPerKWh*capacityKWh
	}
}

const (
	defaultTolerance  = 1e-3
	defaultIterations = 96
)

// Solver bisects a cost bracket. The zero value uses the defaults.
type Solver struct {
	Tolerance     float64 // bracket width to stop at, currency per kWh
	MaxIterations int
}

// Solve returns the cost per kWh where npv crosses zero inside [lo, hi].
// The bracket must satisfy npv(lo) >= 0 >= npv(hi); anything else, or an
// exhausted budget, yields ErrNoConvergence.
func (s Solver) Solve(npv NPVFunc, lo, hi float64) (float64, error) {
	tol := s.Tolerance
	if tol <= 0 {
		tol = defaultTolerance
	}
	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultIterations
	}

	if lo >= hi {
		return 0, fmt.Errorf("%w: bracket [%v, %v] is empty", ErrNoConvergence, lo, hi)
	}
	fLo, fHi := npv(lo), npv(hi)
	if !finite(fLo) || !finite(fHi) {
		return 0, fmt.Errorf("%w: non-finite NPV at bracket edge", ErrNoConvergence)
	}
	if fLo < 0 || fHi > 0 {
		return 0, fmt.Errorf("%w: NPV(%v)=%v, NPV(%v)=%v do not bracket a root",
			ErrNoConvergence, lo, fLo, hi, fHi)
	}

	for i := 0; i < maxIter; i++ {
		mid := lo + (hi-lo)/2
		if hi-lo <= tol {
			return mid, nil
		}
		f := npv(mid)
		if !finite(f) {
			return 0, fmt.Errorf("%w: non-finite NPV at %v", ErrNoConvergence, mid)
		}
		if f >= 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return 0, fmt.Errorf("%w: bracket still %v wide after %d iterations", ErrNoConvergence, hi-lo, maxIter)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
