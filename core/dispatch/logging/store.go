package logging

import (
	"context"
	"time"

	"github.com/aduval/bessplan/core/model"
)

// SolveRecord captures one window solve: what the optimizer was asked and
// what it returned. One record is appended per window, committed or not.
type SolveRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	WindowIndex   int       `json:"window_index"`
	Start         time.Time `json:"start"`
	Steps         int       `json:"steps"`
	Billing       bool      `json:"billing"`
	Objective     float64   `json:"objective"`
	EnergyCost    float64   `json:"energy_cost"`
	DemandCharge  float64   `json:"demand_charge"`
	PeakImportKW  float64   `json:"peak_import_kw"`
	ImportKWh     float64   `json:"import_kwh"`
	ExportKWh     float64   `json:"export_kwh"`
	ThroughputKWh float64   `json:"throughput_kwh"`
	SolveMS       float64   `json:"solve_ms"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start       time.Time // window start at or after
	End         time.Time // window start at or before
	Month       time.Time // restrict to one billing month, zero for all
	BillingOnly bool
}

func (q Query) matches(r SolveRecord) bool {
	if !q.Start.IsZero() && r.Start.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Start.After(q.End) {
		return false
	}
	if !q.Month.IsZero() && !model.MonthOf(r.Start).Equal(model.MonthOf(q.Month)) {
		return false
	}
	if q.BillingOnly && !r.Billing {
		return false
	}
	return true
}

// Store persists SolveRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec SolveRecord) error
	Query(ctx context.Context, q Query) ([]SolveRecord, error)
	Close() error
}
