package ledger

import "time"

// Record aggregates dispatch energy and cost for one day.
type Record struct {
	Date          time.Time
	ImportKWh     float64
	ExportKWh     float64
	ThroughputKWh float64
	EnergyCost    float64
}

// NetImportKWh returns the energy drawn from the grid net of exports.
func (r Record) NetImportKWh() float64 {
	return r.ImportKWh - r.ExportKWh
}

// ExportRatio returns the ratio of exported to imported energy.
func (r Record) ExportRatio() float64 {
	if r.ImportKWh == 0 {
		if r.ExportKWh == 0 {
			return 0
		}
		return r.ExportKWh
	}
	return r.ExportKWh / r.ImportKWh
}
