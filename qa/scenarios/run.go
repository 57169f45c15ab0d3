package scenarios

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aduval/bessplan/core/dispatch"
	"github.com/aduval/bessplan/core/model"
)

const tol = 1e-6

// Window assembles the scenario steps into a dispatch window anchored at a
// fixed date, with time-of-use adders stamped from the tariff.
func (sc *Scenario) Window() model.Window {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	dt := time.Duration(sc.DtHours * float64(time.Hour))
	tariff := sc.Tariff.ToModel()

	steps := make([]model.Timestep, len(sc.Steps))
	for i, st := range sc.Steps {
		at := start.Add(time.Duration(i) * dt)
		steps[i] = model.Timestep{
			Start:        at,
			ProductionKW: st.ProductionKW,
			LoadKW:       st.LoadKW,
			Price:        st.Price,
			EnergyRate:   tariff.EnergyRateAt(at),
		}
	}
	return model.Window{Steps: steps, DtHours: sc.DtHours, Billing: sc.Billing}
}

// RunScenario solves the scenario window and checks the expectations.
func RunScenario(t *testing.T, sc *Scenario) {
	opt := dispatch.New(dispatch.Strategy{DegradationCostPerPercent: sc.WearCost})
	battery := sc.Battery.ToModel()
	initialSOE := sc.InitialSoC * battery.CapacityKWh

	sched, err := opt.Solve(sc.Window(), battery, sc.Tariff.ToModel(), initialSOE, 0)

	if sc.Expected.Infeasible {
		if err == nil {
			t.Errorf("scenario %s expected infeasible, got objective %v", sc.Name, sched.Objective)
		} else if !errors.Is(err, dispatch.ErrInfeasible) {
			t.Errorf("scenario %s expected infeasibility, got %v", sc.Name, err)
		}
		return
	}
	if err != nil {
		t.Fatalf("scenario %s: solve: %v", sc.Name, err)
	}

	if want := sc.Expected.MinObjective; want != nil && sched.Objective < *want-tol {
		t.Errorf("scenario %s objective %v below %v", sc.Name, sched.Objective, *want)
	}
	if want := sc.Expected.MaxObjective; want != nil && sched.Objective > *want+tol {
		t.Errorf("scenario %s objective %v above %v", sc.Name, sched.Objective, *want)
	}
	if want := sc.Expected.MaxPeakKW; want > 0 && sched.PeakImportKW > want+tol {
		t.Errorf("scenario %s peak %v kW above %v kW", sc.Name, sched.PeakImportKW, want)
	}
	if want := sc.Expected.MinCurtailKWh; want > 0 {
		var curtailed float64
		for _, st := range sched.Steps {
			curtailed += st.CurtailKW * sched.DtHours
		}
		if curtailed < want-tol {
			t.Errorf("scenario %s curtailed %v kWh, expected at least %v", sc.Name, curtailed, want)
		}
	}
	if sc.Expected.Idle {
		for i, st := range sched.Steps {
			if math.Abs(st.ChargeKW) > tol || math.Abs(st.DischargeKW) > tol {
				t.Errorf("scenario %s step %d not idle: charge %v discharge %v",
					sc.Name, i, st.ChargeKW, st.DischargeKW)
			}
		}
	}
}
