// Package app wires the configuration into runnable studies: it loads the
// input series, builds the sinks and the recorder, and exposes one method
// per planning mode.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aduval/bessplan/config"
	"github.com/aduval/bessplan/core/breakeven"
	"github.com/aduval/bessplan/core/compress"
	"github.com/aduval/bessplan/core/dispatch"
	"github.com/aduval/bessplan/core/econ"
	"github.com/aduval/bessplan/core/events"
	"github.com/aduval/bessplan/core/factory"
	"github.com/aduval/bessplan/core/horizon"
	coremetrics "github.com/aduval/bessplan/core/metrics"
	"github.com/aduval/bessplan/core/model"
	"github.com/aduval/bessplan/core/monitoring"
	"github.com/aduval/bessplan/core/sizing"
	"github.com/aduval/bessplan/infra/logger"
	"github.com/aduval/bessplan/infra/metrics"
	inframon "github.com/aduval/bessplan/infra/monitoring"
	"github.com/aduval/bessplan/infra/recorder"
	"github.com/aduval/bessplan/infra/series"
	"github.com/aduval/bessplan/internal/eventbus"
)

const hoursPerYear = 8760

// Service holds one loaded study: the input series with tariff rates
// stamped, the metrics sinks, and the run recorder. The same service can
// run plans, sizing searches and break-even solves over that study.
type Service struct {
	cfg  *config.Config
	log  logger.Logger
	bus  eventbus.EventBus
	sink coremetrics.MetricsSink
	rec  recorder.Recorder

	series      model.Series
	tariff      model.Tariff
	annualScale float64
	promAddr    string
}

// New loads the series named by the configuration and builds the configured
// sinks, recorder and error monitor. With compression enabled every run
// solves the reduced series instead of the full one.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("planner")

	tariff := cfg.Tariff.ToModel()
	ser, err := series.LoadFile(cfg.Series.Path)
	if err != nil {
		return nil, fmt.Errorf("series: %w", err)
	}
	ser = ser.WithEnergyRates(tariff)
	if cfg.Compress.Enabled {
		red, err := compress.Reduce(ser, cfg.Compress.ToModel())
		if err != nil {
			return nil, fmt.Errorf("compress: %w", err)
		}
		logg.Infof("compressed %d steps to %d", len(ser.Steps), len(red.Series.Steps))
		ser = red.Series
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	rec, err := recorder.NewFromConfig(cfg.Recorder.ToModule())
	if err != nil {
		coremetrics.CloseSink(sink)
		return nil, fmt.Errorf("recorder: %w", err)
	}
	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		coremetrics.CloseSink(sink)
		_ = rec.Close()
		return nil, fmt.Errorf("monitoring: %w", err)
	}
	monitoring.Init(mon)

	return &Service{
		cfg:    cfg,
		log:    logg,
		bus:    eventbus.New(),
		sink:   sink,
		rec:    rec,
		series: ser,
		tariff: tariff,
		// Costs scale from the solved span to one year. For a compressed
		// series the span is the reduced timeline, so the factor folds in
		// the compression ratio.
		annualScale: hoursPerYear / ser.Hours(),
		promAddr:    promAddr(cfg.Metrics.Sinks),
	}, nil
}

// Start attaches the metrics collector to the event bus and, when a
// prometheus sink is configured, serves its endpoint. Both stop with the
// context.
func (s *Service) Start(ctx context.Context) {
	metrics.StartEventCollector(ctx, s.bus, s.sink)
	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prometheus server: %v", err)
			}
		}()
	}
}

// Close flushes and releases every backend the service opened.
func (s *Service) Close() error {
	coremetrics.CloseSink(s.sink)
	err := s.rec.Close()
	monitoring.Flush(2 * time.Second)
	s.bus.Close()
	return err
}

// PlanOutcome bundles everything one dispatch study produces.
type PlanOutcome struct {
	RunID     string
	Battery   model.BatterySpecification
	Plan      horizon.Plan
	Baseline  horizon.Plan
	Economics econ.Result
}

// RunPlan optimizes the configured battery over the whole series and prices
// it against the no-battery baseline.
func (s *Service) RunPlan(ctx context.Context) (PlanOutcome, error) {
	return s.plan(ctx, "plan", s.cfg.Battery.ToModel())
}

func (s *Service) plan(ctx context.Context, mode string, battery model.BatterySpecification) (PlanOutcome, error) {
	runID := uuid.NewString()
	started := time.Now()
	s.log.Infof("run %s: %s over %d steps", runID, mode, len(s.series.Steps))

	orch := horizon.New(s.cfg.Dispatch.ToStrategy(), s.cfg.Horizon.ToModel()).WithBus(s.bus)
	plan, err := orch.Run(ctx, s.series, battery, s.tariff, s.cfg.Series.InitialSOEKWh)
	if err != nil {
		monitoring.CaptureException(err, monitoring.RunTags(runID, mode))
		return PlanOutcome{}, fmt.Errorf("run %s: %w", runID, err)
	}
	baseline, err := s.baseline(ctx)
	if err != nil {
		monitoring.CaptureException(err, monitoring.RunTags(runID, mode))
		return PlanOutcome{}, fmt.Errorf("run %s baseline: %w", runID, err)
	}

	s.bus.Publish(events.PlanCompleted{
		RunID:              runID,
		Windows:            plan.Windows,
		Steps:              len(plan.Steps),
		EnergyCost:         plan.EnergyCost,
		DemandCharges:      plan.DemandCharges,
		DegradationCost:    plan.DegradationCost,
		DegradationPercent: plan.DegradationPercent,
		TotalCost:          plan.TotalCost,
		FinalSOEKWh:        plan.Final.SOEKWh,
		Duration:           time.Since(started),
	})

	res := s.cfg.Economics.ToEvaluator(s.annualScale).Evaluate(battery, plan, baseline)
	out := PlanOutcome{RunID: runID, Battery: battery, Plan: plan, Baseline: baseline, Economics: res}
	if err := s.record(out, mode, started); err != nil {
		monitoring.CaptureException(err, monitoring.RunTags(runID, mode))
		s.log.Errorf("run %s: recording failed: %v", runID, err)
	}
	return out, nil
}

// baseline prices the series without storage, reusing the windowing so
// demand charges settle on the same boundaries as the battery plan.
func (s *Service) baseline(ctx context.Context) (horizon.Plan, error) {
	orch := horizon.NewWithSolver(dispatch.NoBattery{}, 0, s.cfg.Horizon.ToModel())
	return orch.Run(ctx, s.series, s.cfg.Battery.ToModel(), s.tariff, 0)
}

func (s *Service) record(out PlanOutcome, mode string, started time.Time) error {
	info := recorder.RunInfo{
		ID:          out.RunID,
		StartedAt:   started,
		Mode:        mode,
		CapacityKWh: out.Battery.CapacityKWh,
		PowerKW:     out.Battery.PowerKW,
		Steps:       len(out.Plan.Steps),
		DtHours:     out.Plan.DtHours,
	}
	if err := s.rec.RecordRun(info); err != nil {
		return err
	}
	if err := s.rec.RecordSchedule(out.RunID, out.Plan.Steps); err != nil {
		return err
	}
	if err := s.rec.RecordMonths(out.RunID, out.Plan.Months); err != nil {
		return err
	}
	if err := s.rec.RecordSummary(out.RunID, out.Plan); err != nil {
		return err
	}
	return s.rec.RecordEconomics(out.RunID, out.Economics)
}

// SizingOutcome couples a search result with the run that produced it.
type SizingOutcome struct {
	RunID  string
	Result sizing.Result
}

// RunSizing searches battery dimensions for the highest project NPV. Every
// candidate is priced like RunPlan, against one shared baseline.
func (s *Service) RunSizing(ctx context.Context) (SizingOutcome, error) {
	runID := uuid.NewString()
	started := time.Now()

	baseline, err := s.baseline(ctx)
	if err != nil {
		monitoring.CaptureException(err, monitoring.RunTags(runID, "sizing"))
		return SizingOutcome{}, fmt.Errorf("sizing %s baseline: %w", runID, err)
	}

	strategy := s.cfg.Dispatch.ToStrategy()
	horizonCfg := s.cfg.Horizon.ToModel()
	evaluator := s.cfg.Economics.ToEvaluator(s.annualScale)
	objective := func(ctx context.Context, battery model.BatterySpecification) (float64, error) {
		plan, err := horizon.New(strategy, horizonCfg).Run(ctx, s.series, battery, s.tariff, s.cfg.Series.InitialSOEKWh)
		if err != nil {
			return 0, err
		}
		return evaluator.Evaluate(battery, plan, baseline).NPV, nil
	}

	search, err := sizing.New(objective, s.cfg.Battery.ToModel(), s.cfg.Sizing.ToBounds(), s.cfg.Sizing.ToSearch())
	if err != nil {
		return SizingOutcome{}, fmt.Errorf("sizing %s: %w", runID, err)
	}
	search.OnEvaluation = func(ev sizing.Evaluation) {
		s.bus.Publish(events.CandidateEvaluated{
			Generation:  ev.Generation,
			CapacityKWh: ev.Candidate.CapacityKWh,
			PowerKW:     ev.Candidate.PowerKW,
			Score:       ev.Candidate.Score,
			Feasible:    ev.Feasible,
		})
	}
	search.OnProgress = func(p sizing.Progress) {
		s.bus.Publish(events.GenerationFinished{
			Generation:      p.Generation,
			BestScore:       p.Best.Score,
			BestCapacityKWh: p.Best.CapacityKWh,
			BestPowerKW:     p.Best.PowerKW,
			Evaluations:     p.Evaluations,
			Failures:        p.Failures,
		})
		s.log.Infof("sizing %s: generation %d best %.1f kWh / %.1f kW, NPV %.2f",
			runID, p.Generation, p.Best.CapacityKWh, p.Best.PowerKW, p.Best.Score)
	}

	res, err := search.Run(ctx)
	if err != nil {
		monitoring.CaptureException(err, monitoring.RunTags(runID, "sizing"))
		return SizingOutcome{}, fmt.Errorf("sizing %s: %w", runID, err)
	}

	info := recorder.RunInfo{
		ID:          runID,
		StartedAt:   started,
		Mode:        "sizing",
		CapacityKWh: res.Best.CapacityKWh,
		PowerKW:     res.Best.PowerKW,
		Steps:       len(s.series.Steps),
		DtHours:     s.series.DtHours,
	}
	if err := s.rec.RecordRun(info); err != nil {
		monitoring.CaptureException(err, monitoring.RunTags(runID, "sizing"))
		s.log.Errorf("sizing %s: recording failed: %v", runID, err)
	}
	return SizingOutcome{RunID: runID, Result: res}, nil
}

// BreakEvenOutcome reports the storage price at which the configured
// project's NPV crosses zero, with the plan that priced it.
type BreakEvenOutcome struct {
	RunID      string
	CostPerKWh float64
	Plan       PlanOutcome
}

// RunBreakEven bisects the storage purchase price to the zero-NPV point,
// using the cash flows of one plan run at the configured dimensions.
func (s *Service) RunBreakEven(ctx context.Context) (BreakEvenOutcome, error) {
	out, err := s.plan(ctx, "breakeven", s.cfg.Battery.ToModel())
	if err != nil {
		return BreakEvenOutcome{}, err
	}

	npv := breakeven.FromCashFlows(s.cfg.Economics.DiscountRate, out.Economics.AnnualCashFlows, out.Battery.CapacityKWh)
	solver := breakeven.Solver{Tolerance: s.cfg.Breakeven.Tolerance, MaxIterations: s.cfg.Breakeven.MaxIterations}
	price, err := solver.Solve(npv, s.cfg.Breakeven.MinCostPerKWh, s.cfg.Breakeven.MaxCostPerKWh)
	if err != nil {
		monitoring.CaptureException(err, monitoring.RunTags(out.RunID, "breakeven"))
		return BreakEvenOutcome{}, fmt.Errorf("breakeven %s: %w", out.RunID, err)
	}
	s.log.Infof("breakeven %s: %.2f per kWh", out.RunID, price)
	return BreakEvenOutcome{RunID: out.RunID, CostPerKWh: price, Plan: out}, nil
}

// promAddr finds the listen address of a configured prometheus sink, if any.
func promAddr(sinks []factory.ModuleConfig) string {
	for _, s := range sinks {
		if s.Type != "prometheus" {
			continue
		}
		if addr, ok := s.Conf["addr"].(string); ok {
			return addr
		}
	}
	return ""
}
