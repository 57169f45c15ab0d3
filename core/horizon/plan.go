package horizon

import (
	"time"

	"github.com/aduval/bessplan/core/model"
)

// MonthCharge is the demand-charge settlement of one billing month, computed
// on the realized peak import once the month is closed.
type MonthCharge struct {
	Month        time.Time
	PeakKW       float64
	BracketIndex int
	Charge       float64
}

// Plan is a stitched multi-window dispatch over a whole series: every
// committed step, the monthly demand-charge ledger and the cost totals.
type Plan struct {
	Steps   []model.ScheduleStep
	DtHours float64
	Months  []MonthCharge
	Windows int // solves stitched into the plan

	EnergyCost         float64
	DemandCharges      float64
	DegradationCost    float64
	DegradationPercent float64
	TotalCost          float64

	// Final is the system state after the last committed step, usable as
	// the starting point of a follow-up run.
	Final model.SystemState
}

// Hours returns the committed duration of the plan.
func (p Plan) Hours() float64 {
	return float64(len(p.Steps)) * p.DtHours
}
