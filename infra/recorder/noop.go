package recorder

import (
	"github.com/aduval/bessplan/core/econ"
	"github.com/aduval/bessplan/core/horizon"
	"github.com/aduval/bessplan/core/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(RunInfo) error                           { return nil }
func (n *NoopRecorder) RecordSchedule(string, []model.ScheduleStep) error { return nil }
func (n *NoopRecorder) RecordMonths(string, []horizon.MonthCharge) error  { return nil }
func (n *NoopRecorder) RecordSummary(string, horizon.Plan) error          { return nil }
func (n *NoopRecorder) RecordEconomics(string, econ.Result) error         { return nil }
func (n *NoopRecorder) Close() error                                      { return nil }
