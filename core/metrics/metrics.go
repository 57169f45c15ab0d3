package metrics

import "time"

// WindowEvent describes one solved dispatch window.
type WindowEvent struct {
	WindowIndex   int
	Start         time.Time
	Steps         int
	Billing       bool
	Objective     float64
	EnergyCost    float64
	DemandCharge  float64
	PeakImportKW  float64
	ImportKWh     float64
	ExportKWh     float64
	ThroughputKWh float64
	SolveDuration time.Duration
	Time          time.Time
}

// MetricsSink records solved windows for observability purposes.
type MetricsSink interface {
	RecordWindow(ev WindowEvent) error
}

// MonthEvent captures a settled billing month.
type MonthEvent struct {
	Month        time.Time
	PeakKW       float64
	BracketIndex int
	Charge       float64
	Time         time.Time
}

// MonthRecorder records monthly demand-charge settlements.
type MonthRecorder interface {
	RecordMonth(ev MonthEvent) error
}

// PlanEvent summarizes a completed horizon run.
type PlanEvent struct {
	RunID              string
	Windows            int
	Steps              int
	EnergyCost         float64
	DemandCharges      float64
	DegradationCost    float64
	DegradationPercent float64
	TotalCost          float64
	FinalSOEKWh        float64
	Duration           time.Duration
	Time               time.Time
}

// PlanRecorder records plan summaries.
type PlanRecorder interface {
	RecordPlan(ev PlanEvent) error
}

// CandidateEvent describes one sizing candidate evaluation.
type CandidateEvent struct {
	Generation  int
	CapacityKWh float64
	PowerKW     float64
	Score       float64
	Feasible    bool
	Time        time.Time
}

// CandidateRecorder records sizing candidate evaluations.
type CandidateRecorder interface {
	RecordCandidate(ev CandidateEvent) error
}

// SearchEvent captures the state of the sizing search after a generation.
type SearchEvent struct {
	Generation      int
	BestScore       float64
	BestCapacityKWh float64
	BestPowerKW     float64
	Evaluations     int
	Failures        int
	Time            time.Time
}

// SearchRecorder records sizing search progress.
type SearchRecorder interface {
	RecordSearchProgress(ev SearchEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordWindow(WindowEvent) error { return nil }

func (NopSink) RecordMonth(MonthEvent) error           { return nil }
func (NopSink) RecordPlan(PlanEvent) error             { return nil }
func (NopSink) RecordCandidate(CandidateEvent) error   { return nil }
func (NopSink) RecordSearchProgress(SearchEvent) error { return nil }
