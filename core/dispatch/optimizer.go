// Package dispatch computes the cost-minimal battery schedule for one time
// window by solving a linear program: grid energy priced at the tariff,
// battery throughput priced at its marginal wear, and on billing windows a
// peak-import variable priced at the demand bracket's rate.
package dispatch

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/aduval/bessplan/core/degradation"
	"github.com/aduval/bessplan/core/model"
)

// ErrInfeasible indicates the window admits no dispatch satisfying the
// physical and contractual constraints.
var ErrInfeasible = errors.New("dispatch infeasible")

// Optimizer solves windows with one fixed Strategy. It is stateless and safe
// for concurrent use.
type Optimizer struct {
	strategy Strategy
}

// New returns an optimizer with the given strategy, defaults filled in.
func New(strategy Strategy) Optimizer {
	return Optimizer{strategy: strategy.withDefaults()}
}

// Solve computes the optimal schedule for one window starting from the given
// state of energy and, on billing windows, the peak already seen this month.
// The returned error wraps ErrInfeasible when no feasible dispatch exists.
func (o Optimizer) Solve(w model.Window, battery model.BatterySpecification, tariff model.Tariff,
	initialSOE, initialPeakKW float64) (model.DispatchSchedule, error) {

	if err := battery.Validate(); err != nil {
		return model.DispatchSchedule{}, err
	}
	if len(w.Steps) == 0 || w.DtHours <= 0 {
		return model.DispatchSchedule{}, fmt.Errorf("%w: empty or zero-resolution window", model.ErrAlignment)
	}

	wear := degradation.New(battery, o.strategy.DegradationCostPerPercent)
	soe := clamp(initialSOE, battery.MinEnergy(), battery.MaxEnergy())
	peakFloor := math.Max(initialPeakKW, 0)

	if !w.Billing || len(tariff.DemandBrackets) == 0 {
		return o.solveFixed(w, battery, tariff, wear, soe, peakFloor, 0, false)
	}
	return o.solveBilling(w, battery, tariff, wear, soe, peakFloor)
}

// solveBilling iterates the demand bracket to a fixed point: the peak is
// priced at one bracket's linear rate, and the solve is repeated with the
// bracket the realized peak actually lands in until both agree. The stepwise
// charge itself is not convex, so on a cycle the iterate with the lowest
// true cost wins, ties going to the lower bracket.
func (o Optimizer) solveBilling(w model.Window, battery model.BatterySpecification, tariff model.Tariff,
	wear degradation.Model, soe, peakFloor float64) (model.DispatchSchedule, error) {

	idx, _ := tariff.Bracket(peakFloor)
	var (
		best     model.DispatchSchedule
		bestIdx  = -1
		bestCost = math.Inf(1)
		seen     = make(map[int]bool)
	)
	for iter := 0; iter < o.strategy.MaxBracketIterations; iter++ {
		rate := tariff.DemandBrackets[idx].RatePerKW
		sched, err := o.solveFixed(w, battery, tariff, wear, soe, peakFloor, rate, true)
		if err != nil {
			return model.DispatchSchedule{}, err
		}
		if sched.Objective < bestCost-costTol ||
			(math.Abs(sched.Objective-bestCost) <= costTol && sched.BracketIndex < bestIdx) {
			best, bestCost, bestIdx = sched, sched.Objective, sched.BracketIndex
		}
		if sched.BracketIndex == idx {
			break // priced and realized bracket agree
		}
		seen[idx] = true
		if seen[sched.BracketIndex] {
			break // cycling
		}
		idx = sched.BracketIndex
	}
	return best, nil
}

const costTol = 1e-9

// solveFixed builds and solves the window program with a fixed peak price,
// then prices the realized schedule: energy at the tariff, wear from the
// cycle ledger plus calendar time, and on billing windows the true stepwise
// demand charge at the realized peak.
func (o Optimizer) solveFixed(w model.Window, battery model.BatterySpecification, tariff model.Tariff,
	wear degradation.Model, soe, peakFloor, bracketRate float64, hasPeak bool) (model.DispatchSchedule, error) {

	p := buildProblem(w, battery, tariff, wear.MarginalCostPerKWh(), soe, peakFloor, bracketRate, hasPeak)
	sol, err := lpSolve(p.c, p.a, p.b, o.strategy.SimplexTol)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return model.DispatchSchedule{}, fmt.Errorf("%w: %v", ErrInfeasible, err)
		}
		return model.DispatchSchedule{}, fmt.Errorf("simplex: %w", err)
	}

	minE, maxE := battery.MinEnergy(), battery.MaxEnergy()
	sched := model.DispatchSchedule{
		Steps:        make([]model.ScheduleStep, p.n),
		DtHours:      w.DtHours,
		BracketIndex: -1,
	}
	var energy float64
	for t, st := range w.Steps {
		step := model.ScheduleStep{
			Start:        st.Start,
			ChargeKW:     clamp(sol[col(t, offCharge)], 0, battery.PowerKW),
			DischargeKW:  clamp(sol[col(t, offDischarge)], 0, battery.PowerKW),
			GridImportKW: math.Max(sol[col(t, offImport)], 0),
			GridExportKW: math.Max(sol[col(t, offExport)], 0),
			CurtailKW:    clamp(sol[col(t, offCurtail)], 0, st.ProductionKW),
			SOEKWh:       clamp(sol[col(t, offSOE)]+minE, minE, maxE),
		}
		sched.Steps[t] = step
		energy += (step.GridImportKW*(st.Price+st.EnergyRate) - step.GridExportKW*st.Price) * w.DtHours
	}

	// The peak variable is degenerate when its bracket rate is zero, so the
	// billing peak is always recomputed from the realized imports.
	realized := math.Max(peakFloor, sched.MaxImportKW())
	sched.PeakImportKW = realized
	sched.EnergyCost = energy
	sched.DegradationPercent = wear.WindowLossPercent(sched.ThroughputKWh(), w.Hours())
	sched.DegradationCost = wear.Cost(sched.DegradationPercent)
	if w.Billing {
		sched.DemandCharge = tariff.DemandCharge(realized)
		if len(tariff.DemandBrackets) > 0 {
			sched.BracketIndex, _ = tariff.Bracket(realized)
		}
	}
	sched.Objective = sched.EnergyCost + sched.DemandCharge + sched.DegradationCost
	return sched, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
