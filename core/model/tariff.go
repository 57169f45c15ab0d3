package model

import (
	"fmt"
	"time"
)

// RatePeriod is one time-of-use window of the energy tariff. Hours are
// local hour-of-day; a period with StartHour > EndHour wraps past midnight.
type RatePeriod struct {
	StartHour  int     // inclusive, 0..23
	EndHour    int     // exclusive, 1..24
	RatePerKWh float64 // adder charged on imported energy
}

// contains reports whether the period covers the given hour of day.
func (p RatePeriod) contains(hour int) bool {
	if p.StartHour < p.EndHour {
		return hour >= p.StartHour && hour < p.EndHour
	}
	return hour >= p.StartHour || hour < p.EndHour
}

// DemandBracket is one step of the monthly demand charge. A month whose peak
// import falls at or below UpToKW pays MonthlyFee plus RatePerKW times the
// peak. UpToKW <= 0 marks the open-ended final bracket.
type DemandBracket struct {
	UpToKW     float64
	RatePerKW  float64
	MonthlyFee float64
}

// Tariff describes the grid contract: time-of-use energy rates on imports,
// a stepwise monthly demand charge on the peak import, and connection
// limits. The zero value is a valid free, unlimited contract.
type Tariff struct {
	EnergyRates    []RatePeriod
	DemandBrackets []DemandBracket
	ExportLimitKW  float64 // 0 = unlimited
	ImportLimitKW  float64 // 0 = unlimited
}

// Validate checks rate periods and bracket ordering.
func (t Tariff) Validate() error {
	for i, p := range t.EnergyRates {
		if p.StartHour < 0 || p.StartHour > 23 || p.EndHour < 0 || p.EndHour > 24 {
			return fmt.Errorf("energy rate period %d: hours [%d, %d) out of range", i, p.StartHour, p.EndHour)
		}
		if p.RatePerKWh < 0 {
			return fmt.Errorf("energy rate period %d: negative rate %v", i, p.RatePerKWh)
		}
	}
	for i, b := range t.DemandBrackets {
		if b.RatePerKW < 0 || b.MonthlyFee < 0 {
			return fmt.Errorf("demand bracket %d: negative rate or fee", i)
		}
		if b.UpToKW <= 0 && i != len(t.DemandBrackets)-1 {
			return fmt.Errorf("demand bracket %d: only the last bracket may be open-ended", i)
		}
		if i > 0 && t.DemandBrackets[i-1].UpToKW > 0 && b.UpToKW > 0 && b.UpToKW <= t.DemandBrackets[i-1].UpToKW {
			return fmt.Errorf("demand bracket %d: bound %v kW not above previous %v kW",
				i, b.UpToKW, t.DemandBrackets[i-1].UpToKW)
		}
	}
	if t.ExportLimitKW < 0 {
		return fmt.Errorf("negative export limit %v kW", t.ExportLimitKW)
	}
	if t.ImportLimitKW < 0 {
		return fmt.Errorf("negative import limit %v kW", t.ImportLimitKW)
	}
	return nil
}

// EnergyRateAt returns the time-of-use adder applying at the given instant.
// The first matching period wins; no match means no adder.
func (t Tariff) EnergyRateAt(at time.Time) float64 {
	h := at.Hour()
	for _, p := range t.EnergyRates {
		if p.contains(h) {
			return p.RatePerKWh
		}
	}
	return 0
}

// Bracket returns the index and descriptor of the demand bracket covering
// the given monthly peak. Index -1 means no demand charge is configured.
func (t Tariff) Bracket(peakKW float64) (int, DemandBracket) {
	if len(t.DemandBrackets) == 0 {
		return -1, DemandBracket{}
	}
	for i, b := range t.DemandBrackets {
		if b.UpToKW <= 0 || peakKW <= b.UpToKW {
			return i, b
		}
	}
	last := len(t.DemandBrackets) - 1
	return last, t.DemandBrackets[last]
}

// DemandCharge returns the monthly charge for the given peak import: the
// covering bracket's fee plus its per-kW rate times the peak.
func (t Tariff) DemandCharge(peakKW float64) float64 {
	if peakKW < 0 {
		peakKW = 0
	}
	_, b := t.Bracket(peakKW)
	return b.MonthlyFee + b.RatePerKW*peakKW
}
