package model

import "time"

// ScheduleStep is the dispatch decided for one timestep. Powers are averages
// over the step; SOEKWh is the state of energy at the end of the step.
type ScheduleStep struct {
	Start        time.Time
	ChargeKW     float64
	DischargeKW  float64
	GridImportKW float64
	GridExportKW float64
	CurtailKW    float64
	SOEKWh       float64
}

// DispatchSchedule is the result of one window solve: the per-step dispatch
// plus its cost breakdown. Schedules are produced once and read-only.
type DispatchSchedule struct {
	Steps   []ScheduleStep
	DtHours float64

	// PeakImportKW is the realized billing peak: the maximum of the initial
	// month peak and every import in the window.
	PeakImportKW float64
	// BracketIndex is the demand bracket covering PeakImportKW, -1 when the
	// tariff carries no demand charge or the window is not a billing window.
	BracketIndex int

	EnergyCost         float64 // imports minus export revenue, currency
	DemandCharge       float64 // stepwise charge at PeakImportKW, currency
	DegradationCost    float64 // monetized capacity loss, currency
	DegradationPercent float64 // capacity loss over the window, percent
	Objective          float64 // EnergyCost + DemandCharge + DegradationCost
}

// ThroughputKWh returns the total energy moved through the battery in both
// directions, measured at the grid side.
func (d DispatchSchedule) ThroughputKWh() float64 {
	var kwh float64
	for _, st := range d.Steps {
		kwh += (st.ChargeKW + st.DischargeKW) * d.DtHours
	}
	return kwh
}

// ImportKWh returns the total energy drawn from the grid.
func (d DispatchSchedule) ImportKWh() float64 {
	var kwh float64
	for _, st := range d.Steps {
		kwh += st.GridImportKW * d.DtHours
	}
	return kwh
}

// ExportKWh returns the total energy fed into the grid.
func (d DispatchSchedule) ExportKWh() float64 {
	var kwh float64
	for _, st := range d.Steps {
		kwh += st.GridExportKW * d.DtHours
	}
	return kwh
}

// FinalSOE returns the state of energy after the last step, or the given
// fallback for an empty schedule.
func (d DispatchSchedule) FinalSOE(fallback float64) float64 {
	if len(d.Steps) == 0 {
		return fallback
	}
	return d.Steps[len(d.Steps)-1].SOEKWh
}

// MaxImportKW returns the largest grid import in the schedule.
func (d DispatchSchedule) MaxImportKW() float64 {
	var peak float64
	for _, st := range d.Steps {
		if st.GridImportKW > peak {
			peak = st.GridImportKW
		}
	}
	return peak
}
