package metrics

import (
	"context"
	"time"

	"github.com/aduval/bessplan/core/events"
	coremetrics "github.com/aduval/bessplan/core/metrics"
	"github.com/aduval/bessplan/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(sink, ev)
			}
		}
	}()
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) {
	switch e := ev.(type) {
	case events.WindowSolved:
		_ = sink.RecordWindow(coremetrics.WindowEvent{
			WindowIndex:   e.Index,
			Start:         e.Start,
			Steps:         len(e.Schedule.Steps),
			Billing:       e.Billing,
			Objective:     e.Schedule.Objective,
			EnergyCost:    e.Schedule.EnergyCost,
			DemandCharge:  e.Schedule.DemandCharge,
			PeakImportKW:  e.Schedule.PeakImportKW,
			ImportKWh:     e.Schedule.ImportKWh(),
			ExportKWh:     e.Schedule.ExportKWh(),
			ThroughputKWh: e.Schedule.ThroughputKWh(),
			SolveDuration: e.Duration,
			Time:          time.Now(),
		})
	case events.MonthClosed:
		if r, ok := sink.(coremetrics.MonthRecorder); ok {
			_ = r.RecordMonth(coremetrics.MonthEvent{
				Month:        e.Month,
				PeakKW:       e.PeakKW,
				BracketIndex: e.BracketIndex,
				Charge:       e.Charge,
				Time:         time.Now(),
			})
		}
	case events.PlanCompleted:
		if r, ok := sink.(coremetrics.PlanRecorder); ok {
			_ = r.RecordPlan(coremetrics.PlanEvent{
				RunID:              e.RunID,
				Windows:            e.Windows,
				Steps:              e.Steps,
				EnergyCost:         e.EnergyCost,
				DemandCharges:      e.DemandCharges,
				DegradationCost:    e.DegradationCost,
				DegradationPercent: e.DegradationPercent,
				TotalCost:          e.TotalCost,
				FinalSOEKWh:        e.FinalSOEKWh,
				Duration:           e.Duration,
				Time:               time.Now(),
			})
		}
	case events.CandidateEvaluated:
		if r, ok := sink.(coremetrics.CandidateRecorder); ok {
			_ = r.RecordCandidate(coremetrics.CandidateEvent{
				Generation:  e.Generation,
				CapacityKWh: e.CapacityKWh,
				PowerKW:     e.PowerKW,
				Score:       e.Score,
				Feasible:    e.Feasible,
				Time:        time.Now(),
			})
		}
	case events.GenerationFinished:
		if r, ok := sink.(coremetrics.SearchRecorder); ok {
			_ = r.RecordSearchProgress(coremetrics.SearchEvent{
				Generation:      e.Generation,
				BestScore:       e.BestScore,
				BestCapacityKWh: e.BestCapacityKWh,
				BestPowerKW:     e.BestPowerKW,
				Evaluations:     e.Evaluations,
				Failures:        e.Failures,
				Time:            time.Now(),
			})
		}
	}
}
