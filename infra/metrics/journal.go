package metrics

import (
	"context"
	"time"

	"github.com/aduval/bessplan/core/dispatch/logging"
	coremetrics "github.com/aduval/bessplan/core/metrics"
)

// JournalSink appends every solved window to a solve journal store, giving
// long runs a durable per-window trace next to the aggregated metrics.
type JournalSink struct {
	store logging.Store
}

// NewJournalSink wraps a solve journal store as a metrics sink.
func NewJournalSink(store logging.Store) *JournalSink {
	return &JournalSink{store: store}
}

// RecordWindow appends the window to the journal.
func (s *JournalSink) RecordWindow(ev coremetrics.WindowEvent) error {
	rec := logging.SolveRecord{
		Timestamp:     ev.Time,
		WindowIndex:   ev.WindowIndex,
		Start:         ev.Start,
		Steps:         ev.Steps,
		Billing:       ev.Billing,
		Objective:     ev.Objective,
		EnergyCost:    ev.EnergyCost,
		DemandCharge:  ev.DemandCharge,
		PeakImportKW:  ev.PeakImportKW,
		ImportKWh:     ev.ImportKWh,
		ExportKWh:     ev.ExportKWh,
		ThroughputKWh: ev.ThroughputKWh,
		SolveMS:       float64(ev.SolveDuration) / float64(time.Millisecond),
	}
	return s.store.Append(context.Background(), rec)
}

// Close closes the underlying store.
func (s *JournalSink) Close() error { return s.store.Close() }
