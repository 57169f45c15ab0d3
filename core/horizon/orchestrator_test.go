package horizon

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/aduval/bessplan/core/dispatch"
	"github.com/aduval/bessplan/core/events"
	"github.com/aduval/bessplan/core/model"
	"github.com/aduval/bessplan/internal/eventbus"
)

func testBattery() model.BatterySpecification {
	return model.BatterySpecification{
		CapacityKWh:         100,
		PowerKW:             10,
		ChargeEfficiency:    1,
		DischargeEfficiency: 1,
		MinSoC:              0,
		MaxSoC:              1,
		RatedCycleLife:      5000,
		RatedCalendarLife:   87600,
	}
}

func seriesFrom(start time.Time, loads, prods, prices []float64) model.Series {
	s := model.Series{DtHours: 1, Steps: make([]model.Timestep, len(loads))}
	for i := range s.Steps {
		s.Steps[i] = model.Timestep{Start: start.Add(time.Duration(i) * time.Hour), LoadKW: loads[i], Price: prices[i]}
		if prods != nil {
			s.Steps[i].ProductionKW = prods[i]
		}
	}
	return s
}

// stubSolver passes windows through the no-battery baseline and records
// what it was asked to solve.
type stubSolver struct {
	windows []model.Window
	fail    int // window index to fail on, -1 never
}

func (s *stubSolver) Solve(w model.Window, _ model.BatterySpecification, tariff model.Tariff,
	_, initialPeakKW float64) (model.DispatchSchedule, error) {
	idx := len(s.windows)
	s.windows = append(s.windows, w)
	if idx == s.fail {
		return model.DispatchSchedule{}, dispatch.ErrInfeasible
	}
	return dispatch.Baseline(w, tariff, initialPeakKW)
}

func TestMonthBoundarySettlesDemandCharge(t *testing.T) {
	start := time.Date(2024, 1, 31, 22, 0, 0, 0, time.UTC)
	series := seriesFrom(start, []float64{10, 20, 30, 15}, nil, []float64{0.1, 0.1, 0.1, 0.1})
	tariff := model.Tariff{DemandBrackets: []model.DemandBracket{{RatePerKW: 2}}}

	stub := &stubSolver{fail: -1}
	o := NewWithSolver(stub, 0, Config{})
	plan, err := o.Run(context.Background(), series, testBattery(), tariff, 0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(stub.windows) != 2 {
		t.Fatalf("expected 2 month windows, got %d", len(stub.windows))
	}
	if len(plan.Months) != 2 {
		t.Fatalf("expected 2 settled months, got %d", len(plan.Months))
	}
	jan, feb := plan.Months[0], plan.Months[1]
	if !jan.Month.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("first settlement month: %s", jan.Month)
	}
	if jan.PeakKW != 20 || feb.PeakKW != 30 {
		t.Fatalf("peaks: jan=%v feb=%v", jan.PeakKW, feb.PeakKW)
	}
	if plan.DemandCharges != 40+60 {
		t.Fatalf("demand charges: expected 100 got %v", plan.DemandCharges)
	}
}

func TestSOECarriedAcrossWindows(t *testing.T) {
	start := time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)
	series := seriesFrom(start, []float64{0, 0}, nil, []float64{-0.05, 0.30})

	o := New(dispatch.Strategy{}, Config{})
	plan, err := o.Run(context.Background(), series, testBattery(), model.Tariff{}, 0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// Paid to charge in January's last hour, sells it back in February's
	// first. The second window only discharges if the SOE crossed over.
	if dis := plan.Steps[1].DischargeKW; math.Abs(dis-10) > 1e-6 {
		t.Fatalf("february discharge: expected 10 kW got %v", dis)
	}
	if want := -0.05*10 - 0.30*10; math.Abs(plan.TotalCost-want) > 1e-6 {
		t.Fatalf("total cost: expected %v got %v", want, plan.TotalCost)
	}
	if math.Abs(plan.Final.SOEKWh) > 1e-6 {
		t.Fatalf("final SOE: expected 0 got %v", plan.Final.SOEKWh)
	}
}

func TestRollingLookaheadStoresForSpike(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	loads := []float64{10, 10, 10, 10}
	prices := []float64{0.05, 0.05, 0.50, 0.05}

	myopic, err := New(dispatch.Strategy{}, Config{WindowSteps: 1}).
		Run(context.Background(), seriesFrom(start, loads, nil, prices), testBattery(), model.Tariff{}, 0)
	if err != nil {
		t.Fatalf("myopic run: %v", err)
	}
	rolling, err := New(dispatch.Strategy{}, Config{Mode: ModeRolling, LookaheadSteps: 4, CommitSteps: 1}).
		Run(context.Background(), seriesFrom(start, loads, nil, prices), testBattery(), model.Tariff{}, 0)
	if err != nil {
		t.Fatalf("rolling run: %v", err)
	}

	if rolling.TotalCost >= myopic.TotalCost-1e-6 {
		t.Fatalf("lookahead should beat myopic: rolling=%v myopic=%v", rolling.TotalCost, myopic.TotalCost)
	}
	if charged := rolling.Steps[0].ChargeKW + rolling.Steps[1].ChargeKW; charged < 1e-6 {
		t.Fatalf("expected pre-spike charging, got %v kW", charged)
	}
	if len(rolling.Steps) != len(loads) {
		t.Fatalf("committed %d steps, want %d", len(rolling.Steps), len(loads))
	}
}

func TestRollingCommitStepsRespected(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	series := seriesFrom(start, []float64{5, 5, 5, 5, 5}, nil, []float64{0.1, 0.1, 0.1, 0.1, 0.1})

	stub := &stubSolver{fail: -1}
	o := NewWithSolver(stub, 0, Config{Mode: ModeRolling, LookaheadSteps: 3, CommitSteps: 2})
	plan, err := o.Run(context.Background(), series, testBattery(), model.Tariff{}, 0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(plan.Steps) != 5 {
		t.Fatalf("committed %d steps, want 5", len(plan.Steps))
	}
	sizes := make([]int, len(stub.windows))
	for i, w := range stub.windows {
		sizes[i] = len(w.Steps)
	}
	if len(sizes) != 3 || sizes[0] != 3 || sizes[1] != 3 || sizes[2] != 1 {
		t.Fatalf("lookahead window sizes: %v", sizes)
	}
}

func TestRollingMatchesCommittedOnFlatPrice(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	loads := []float64{5, 5, 5, 5, 5, 5}
	prices := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1}
	strategy := dispatch.Strategy{DegradationCostPerPercent: 20}

	committed, err := New(strategy, Config{}).
		Run(context.Background(), seriesFrom(start, loads, nil, prices), testBattery(), model.Tariff{}, 0)
	if err != nil {
		t.Fatalf("committed run: %v", err)
	}
	rolling, err := New(strategy, Config{Mode: ModeRolling, LookaheadSteps: 3, CommitSteps: 1}).
		Run(context.Background(), seriesFrom(start, loads, nil, prices), testBattery(), model.Tariff{}, 0)
	if err != nil {
		t.Fatalf("rolling run: %v", err)
	}

	// Nothing to arbitrage, so both modes leave the battery idle and price
	// the same imports.
	if math.Abs(committed.TotalCost-rolling.TotalCost) > 1e-9 {
		t.Fatalf("modes disagree: committed=%v rolling=%v", committed.TotalCost, rolling.TotalCost)
	}
	if want := 6 * 5 * 0.1; math.Abs(committed.EnergyCost-want) > 1e-6 {
		t.Fatalf("energy cost: expected %v got %v", want, committed.EnergyCost)
	}
	if len(committed.Steps) != 6 || len(rolling.Steps) != 6 {
		t.Fatalf("committed %d/%d steps, want 6", len(committed.Steps), len(rolling.Steps))
	}
}

func TestFixedWindowSteps(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	series := seriesFrom(start, []float64{5, 5, 5, 5, 5}, nil, []float64{0.1, 0.1, 0.1, 0.1, 0.1})

	stub := &stubSolver{fail: -1}
	if _, err := NewWithSolver(stub, 0, Config{WindowSteps: 2}).
		Run(context.Background(), series, testBattery(), model.Tariff{}, 0); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(stub.windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(stub.windows))
	}
	for i, w := range stub.windows {
		if w.Billing {
			t.Fatalf("window %d: fixed-size windows must not be billing windows", i)
		}
	}
	if len(stub.windows[2].Steps) != 1 {
		t.Fatalf("tail window size: %d", len(stub.windows[2].Steps))
	}
}

func TestWindowFailureWrapped(t *testing.T) {
	start := time.Date(2024, 1, 31, 22, 0, 0, 0, time.UTC)
	series := seriesFrom(start, []float64{10, 10, 10, 10}, nil, []float64{0.1, 0.1, 0.1, 0.1})

	stub := &stubSolver{fail: 1}
	_, err := NewWithSolver(stub, 0, Config{}).Run(context.Background(), series, testBattery(), model.Tariff{}, 0)
	if !errors.Is(err, dispatch.ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible, got %v", err)
	}
	if !strings.Contains(err.Error(), "window 1") {
		t.Fatalf("error must name the failing window: %v", err)
	}
}

func TestContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	series := seriesFrom(start, []float64{5}, nil, []float64{0.1})
	_, err := NewWithSolver(&stubSolver{fail: -1}, 0, Config{}).Run(ctx, series, testBattery(), model.Tariff{}, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{}).Validate(); err != nil {
		t.Fatalf("zero config must validate: %v", err)
	}
	if err := (Config{Mode: "annealing"}).Validate(); err == nil {
		t.Fatalf("expected error on unknown mode")
	}
	if err := (Config{Mode: ModeRolling, LookaheadSteps: 2, CommitSteps: 5}).Validate(); err == nil {
		t.Fatalf("expected error on commit > lookahead")
	}
}

func TestEventsPublishedOnBus(t *testing.T) {
	start := time.Date(2024, 1, 31, 22, 0, 0, 0, time.UTC)
	series := seriesFrom(start, []float64{10, 20, 30, 15}, nil, []float64{0.1, 0.1, 0.1, 0.1})
	tariff := model.Tariff{DemandBrackets: []model.DemandBracket{{RatePerKW: 2}}}

	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()

	o := NewWithSolver(&stubSolver{fail: -1}, 0, Config{}).WithBus(bus)
	if _, err := o.Run(context.Background(), series, testBattery(), tariff, 0); err != nil {
		t.Fatalf("run: %v", err)
	}

	var solved, closed int
	for {
		select {
		case ev := <-sub:
			switch e := ev.(type) {
			case events.WindowSolved:
				solved++
				if len(e.Schedule.Steps) == 0 {
					t.Fatalf("window event carries empty schedule")
				}
			case events.MonthClosed:
				closed++
				if e.Charge <= 0 {
					t.Fatalf("month event without charge: %+v", e)
				}
			}
		default:
			if solved != 2 || closed != 2 {
				t.Fatalf("expected 2 windows and 2 months, got %d/%d", solved, closed)
			}
			return
		}
	}
}
