package events

import "time"

// PlanCompleted is published once a full horizon run finishes.
type PlanCompleted struct {
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
}
