package events

import "time"

// MonthClosed is published when a billing month is settled.
type MonthClosed struct {
	Month        time.Time
	PeakKW       float64
	BracketIndex int
	Charge       float64
}
