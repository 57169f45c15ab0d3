package recorder

import (
	"time"

	"github.com/aduval/bessplan/core/econ"
	"github.com/aduval/bessplan/core/horizon"
	"github.com/aduval/bessplan/core/model"
)

// RunInfo identifies one planning run.
type RunInfo struct {
	ID          string
	StartedAt   time.Time
	Mode        string
	CapacityKWh float64
	PowerKW     float64
	Steps       int
	DtHours     float64
}

// Recorder persists planning runs for later analysis.
type Recorder interface {
	RecordRun(run RunInfo) error
	RecordSchedule(runID string, steps []model.ScheduleStep) error
	RecordMonths(runID string, months []horizon.MonthCharge) error
	RecordSummary(runID string, plan horizon.Plan) error
	RecordEconomics(runID string, res econ.Result) error
	Close() error
}
