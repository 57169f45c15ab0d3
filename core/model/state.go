package model

import "time"

// SystemState is the carry between consecutive window solves. It is owned by
// the orchestrator: optimizers read it, only the orchestrator advances it.
type SystemState struct {
	SOEKWh       float64   // state of energy entering the next window
	MonthPeakKW  float64   // highest import seen in the current billing month
	MonthStart   time.Time // first instant of the current billing month
	BracketIndex int       // demand bracket of MonthPeakKW, -1 when untracked
}

// InitialState returns the state a plan starts from: the battery at the
// given state of energy, no peak observed yet, billing month anchored at the
// given instant.
func InitialState(soeKWh float64, at time.Time) SystemState {
	return SystemState{
		SOEKWh:       soeKWh,
		MonthPeakKW:  0,
		MonthStart:   MonthOf(at),
		BracketIndex: -1,
	}
}

// MonthOf returns the first instant of the calendar month containing t, in
// t's location.
func MonthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// SameMonth reports whether both instants fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
