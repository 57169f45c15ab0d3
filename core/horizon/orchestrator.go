// Package horizon stitches per-window solves into a plan over a whole
// series: it slices the horizon into windows, carries the battery state and
// the monthly peak across them, and settles demand charges when a billing
// month closes.
package horizon

import (
	"context"
	"fmt"
	"time"

	"github.com/aduval/bessplan/core/degradation"
	"github.com/aduval/bessplan/core/dispatch"
	"github.com/aduval/bessplan/core/events"
	"github.com/aduval/bessplan/core/model"
	"github.com/aduval/bessplan/internal/eventbus"
)

// Mode selects how the horizon is walked.
type Mode string

const (
	// ModeCommitted solves consecutive non-overlapping windows and commits
	// each in full. The default window is one calendar month.
	ModeCommitted Mode = "committed"
	// ModeRolling re-solves a lookahead window and commits only its first
	// steps, trading solve count for foresight at every step.
	ModeRolling Mode = "rolling"
)

const (
	defaultLookaheadSteps = 24
	defaultCommitSteps    = 1
)

// Config shapes the windowing. The zero value walks calendar months.
type Config struct {
	Mode           Mode
	WindowSteps    int // committed: fixed window length, 0 = calendar months
	LookaheadSteps int // rolling: steps visible per solve
	CommitSteps    int // rolling: steps committed per solve
}

func (c Config) withDefaults() Config {
	if c.Mode == "" {
		c.Mode = ModeCommitted
	}
	if c.LookaheadSteps <= 0 {
		c.LookaheadSteps = defaultLookaheadSteps
	}
	if c.CommitSteps <= 0 {
		c.CommitSteps = defaultCommitSteps
	}
	return c
}

// Validate rejects configurations the orchestrator cannot walk.
func (c Config) Validate() error {
	switch c.Mode {
	case "", ModeCommitted, ModeRolling:
	default:
		return fmt.Errorf("unknown horizon mode %q", c.Mode)
	}
	if c.WindowSteps < 0 {
		return fmt.Errorf("negative window steps %d", c.WindowSteps)
	}
	if c.LookaheadSteps < 0 || c.CommitSteps < 0 {
		return fmt.Errorf("negative rolling steps")
	}
	if c.LookaheadSteps > 0 && c.CommitSteps > c.LookaheadSteps {
		return fmt.Errorf("commit steps %d exceed lookahead %d", c.CommitSteps, c.LookaheadSteps)
	}
	return nil
}

// Solver produces a schedule for one window. dispatch.Optimizer and
// dispatch.NoBattery both satisfy it.
type Solver interface {
	Solve(w model.Window, battery model.BatterySpecification, tariff model.Tariff,
		initialSOE, initialPeakKW float64) (model.DispatchSchedule, error)
}

// Orchestrator walks a series window by window. It owns the system state:
// solvers only ever see the state they are handed.
type Orchestrator struct {
	solver   Solver
	wearCost float64
	cfg      Config
	bus      eventbus.EventBus
}

// New returns an orchestrator driving the LP optimizer with the given
// strategy. The strategy's wear price is reused for plan-level accounting.
func New(strategy dispatch.Strategy, cfg Config) Orchestrator {
	return NewWithSolver(dispatch.New(strategy), strategy.DegradationCostPerPercent, cfg)
}

// NewWithSolver returns an orchestrator around a custom solver, most notably
// dispatch.NoBattery for savings baselines.
func NewWithSolver(solver Solver, wearCostPerPercent float64, cfg Config) Orchestrator {
	return Orchestrator{solver: solver, wearCost: wearCostPerPercent, cfg: cfg.withDefaults()}
}

// WithBus returns a copy publishing WindowSolved and MonthClosed events on bus.
func (o Orchestrator) WithBus(bus eventbus.EventBus) Orchestrator {
	o.bus = bus
	return o
}

// Run stitches the whole series into one plan, starting the battery at
// initialSOE. On a window failure it stops and reports the window rather
// than guessing a state to continue from. Cancelling the context stops the
// run between solves.
func (o Orchestrator) Run(ctx context.Context, series model.Series, battery model.BatterySpecification,
	tariff model.Tariff, initialSOE float64) (Plan, error) {

	if err := series.Validate(); err != nil {
		return Plan{}, err
	}
	if err := battery.Validate(); err != nil {
		return Plan{}, err
	}

	soe := initialSOE
	if soe < battery.MinEnergy() {
		soe = battery.MinEnergy()
	}
	if soe > battery.MaxEnergy() {
		soe = battery.MaxEnergy()
	}

	r := &runner{
		wear:   degradation.New(battery, o.wearCost),
		tariff: tariff,
		state:  model.InitialState(soe, series.Steps[0].Start),
		plan:   Plan{DtHours: series.DtHours},
		bus:    o.bus,
	}

	var err error
	if o.cfg.Mode == ModeRolling {
		err = o.runRolling(ctx, r, series, battery)
	} else {
		err = o.runCommitted(ctx, r, series, battery)
	}
	if err != nil {
		return Plan{}, err
	}

	r.closeMonth()
	r.plan.Final = r.state
	r.plan.DegradationPercent = r.wear.WindowLossPercent(r.throughputKWh, r.hours)
	r.plan.DegradationCost = r.wear.Cost(r.plan.DegradationPercent)
	r.plan.TotalCost = r.plan.EnergyCost + r.plan.DemandCharges + r.plan.DegradationCost
	return r.plan, nil
}

func (o Orchestrator) runCommitted(ctx context.Context, r *runner, series model.Series,
	battery model.BatterySpecification) error {

	for wi, win := range o.windows(series) {
		if err := ctx.Err(); err != nil {
			return err
		}
		started := time.Now()
		sched, err := o.solver.Solve(win, battery, r.tariff, r.state.SOEKWh, r.state.MonthPeakKW)
		if err != nil {
			return windowErr(wi, win, err)
		}
		o.publish(events.WindowSolved{
			Index:    wi,
			Start:    win.Steps[0].Start,
			Billing:  win.Billing,
			Schedule: sched,
			Duration: time.Since(started),
		})
		r.plan.Windows++
		r.commit(win.Steps, sched.Steps)
	}
	return nil
}

func (o Orchestrator) runRolling(ctx context.Context, r *runner, series model.Series,
	battery model.BatterySpecification) error {

	n := len(series.Steps)
	for i, wi := 0, 0; i < n; wi++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+o.cfg.LookaheadSteps, n)
		win := series.Slice(i, end, false)
		started := time.Now()
		sched, err := o.solver.Solve(win, battery, r.tariff, r.state.SOEKWh, r.state.MonthPeakKW)
		if err != nil {
			return windowErr(wi, win, err)
		}
		o.publish(events.WindowSolved{
			Index:    wi,
			Start:    win.Steps[0].Start,
			Billing:  win.Billing,
			Schedule: sched,
			Duration: time.Since(started),
		})
		r.plan.Windows++
		c := min(o.cfg.CommitSteps, end-i)
		r.commit(win.Steps[:c], sched.Steps[:c])
		i += c
	}
	return nil
}

// windows slices the series for committed mode: fixed-size chunks when
// configured, calendar months otherwise. Month windows are billing windows,
// so their solves carry the peak variable.
func (o Orchestrator) windows(s model.Series) []model.Window {
	var wins []model.Window
	if o.cfg.WindowSteps > 0 {
		for i := 0; i < len(s.Steps); i += o.cfg.WindowSteps {
			wins = append(wins, s.Slice(i, min(i+o.cfg.WindowSteps, len(s.Steps)), false))
		}
		return wins
	}
	start := 0
	for i := 1; i <= len(s.Steps); i++ {
		if i == len(s.Steps) || !model.SameMonth(s.Steps[i].Start, s.Steps[start].Start) {
			wins = append(wins, s.Slice(start, i, true))
			start = i
		}
	}
	return wins
}

func (o Orchestrator) publish(e eventbus.Event) {
	if o.bus != nil {
		o.bus.Publish(e)
	}
}

func windowErr(wi int, win model.Window, err error) error {
	return fmt.Errorf("window %d starting %s: %w", wi, win.Steps[0].Start.Format(time.RFC3339), err)
}

// runner accumulates the plan while the orchestrator walks the horizon.
type runner struct {
	wear   degradation.Model
	tariff model.Tariff
	state  model.SystemState
	plan   Plan
	bus    eventbus.EventBus

	throughputKWh float64
	hours         float64
}

// commit appends solved steps to the plan and advances the system state.
// Crossing into a new calendar month settles the one being left.
func (r *runner) commit(in []model.Timestep, steps []model.ScheduleStep) {
	dt := r.plan.DtHours
	for i, ss := range steps {
		if !model.SameMonth(ss.Start, r.state.MonthStart) {
			r.closeMonth()
			r.state.MonthStart = model.MonthOf(ss.Start)
		}
		r.plan.Steps = append(r.plan.Steps, ss)
		r.plan.EnergyCost += (ss.GridImportKW*(in[i].Price+in[i].EnergyRate) - ss.GridExportKW*in[i].Price) * dt
		if ss.GridImportKW > r.state.MonthPeakKW {
			r.state.MonthPeakKW = ss.GridImportKW
			r.state.BracketIndex, _ = r.tariff.Bracket(ss.GridImportKW)
		}
		r.throughputKWh += (ss.ChargeKW + ss.DischargeKW) * dt
		r.hours += dt
		r.state.SOEKWh = ss.SOEKWh
	}
}

// closeMonth settles the open billing month at its realized peak and resets
// the peak tracking.
func (r *runner) closeMonth() {
	if len(r.tariff.DemandBrackets) > 0 {
		idx, _ := r.tariff.Bracket(r.state.MonthPeakKW)
		charge := r.tariff.DemandCharge(r.state.MonthPeakKW)
		r.plan.Months = append(r.plan.Months, MonthCharge{
			Month:        r.state.MonthStart,
			PeakKW:       r.state.MonthPeakKW,
			BracketIndex: idx,
			Charge:       charge,
		})
		r.plan.DemandCharges += charge
		if r.bus != nil {
			r.bus.Publish(events.MonthClosed{
				Month:        r.state.MonthStart,
				PeakKW:       r.state.MonthPeakKW,
				BracketIndex: idx,
				Charge:       charge,
			})
		}
	}
	r.state.MonthPeakKW = 0
	r.state.BracketIndex = -1
}
