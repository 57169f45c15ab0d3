package dispatch

import (
	"fmt"
	"math"

	"github.com/aduval/bessplan/core/model"
)

// NoBattery solves windows as if no storage were installed. It satisfies the
// same solver shape as Optimizer, which lets plan stitching and savings
// baselines share one code path.
type NoBattery struct{}

// Solve ignores the battery and the state of energy.
func (NoBattery) Solve(w model.Window, _ model.BatterySpecification, tariff model.Tariff,
	_, initialPeakKW float64) (model.DispatchSchedule, error) {
	return Baseline(w, tariff, initialPeakKW)
}

// Baseline returns the dispatch of the window without any battery: surplus
// production is exported up to the grid limit and the rest curtailed,
// deficits are imported. No program is solved. It errs with ErrInfeasible
// when a deficit exceeds the import limit, since nothing can make up the
// difference.
func Baseline(w model.Window, tariff model.Tariff, initialPeakKW float64) (model.DispatchSchedule, error) {
	if len(w.Steps) == 0 || w.DtHours <= 0 {
		return model.DispatchSchedule{}, fmt.Errorf("%w: empty or zero-resolution window", model.ErrAlignment)
	}

	sched := model.DispatchSchedule{
		Steps:        make([]model.ScheduleStep, len(w.Steps)),
		DtHours:      w.DtHours,
		BracketIndex: -1,
	}
	var energy float64
	for t, st := range w.Steps {
		step := model.ScheduleStep{Start: st.Start}
		net := st.ProductionKW - st.LoadKW
		if net >= 0 {
			step.GridExportKW = net
			if tariff.ExportLimitKW > 0 && net > tariff.ExportLimitKW {
				step.GridExportKW = tariff.ExportLimitKW
			}
			step.CurtailKW = net - step.GridExportKW
		} else {
			step.GridImportKW = -net
			if tariff.ImportLimitKW > 0 && step.GridImportKW > tariff.ImportLimitKW+1e-9 {
				return model.DispatchSchedule{}, fmt.Errorf("%w: load of %v kW at %s exceeds import limit %v kW",
					ErrInfeasible, step.GridImportKW, st.Start, tariff.ImportLimitKW)
			}
		}
		sched.Steps[t] = step
		energy += (step.GridImportKW*(st.Price+st.EnergyRate) - step.GridExportKW*st.Price) * w.DtHours
	}

	realized := math.Max(math.Max(initialPeakKW, 0), sched.MaxImportKW())
	sched.PeakImportKW = realized
	sched.EnergyCost = energy
	if w.Billing {
		sched.DemandCharge = tariff.DemandCharge(realized)
		if len(tariff.DemandBrackets) > 0 {
			sched.BracketIndex, _ = tariff.Bracket(realized)
		}
	}
	sched.Objective = sched.EnergyCost + sched.DemandCharge
	return sched, nil
}
