package model

import (
	"errors"
	"fmt"
)

// ErrInvalidBattery indicates a battery specification that cannot describe a
// physical system (non-positive capacity or power, inverted SoC band, ...).
var ErrInvalidBattery = errors.New("invalid battery dimension")

// DefaultEndOfLifeLoss is the capacity-loss fraction conventionally taken as
// end of life when the specification leaves it unset.
const DefaultEndOfLifeLoss = 0.20

// BatterySpecification describes one grid-connected storage unit. All
// derived quantities (usable band, degradation rates) are computed from it;
// the planner never mutates a specification.
type BatterySpecification struct {
	CapacityKWh         float64 // nameplate energy capacity
	PowerKW             float64 // symmetric charge/discharge power limit
	ChargeEfficiency    float64 // one-way AC->cell factor in (0, 1]
	DischargeEfficiency float64 // one-way cell->AC factor in (0, 1]
	MinSoC              float64 // lower state-of-charge bound, fraction
	MaxSoC              float64 // upper state-of-charge bound, fraction

	RatedCycleLife    float64 // full equivalent cycles until end of life
	RatedCalendarLife float64 // hours until end of life at rest
	EndOfLifeLoss     float64 // capacity-loss fraction at EOL, 0 = default 0.20

	CostPerKWh float64 // purchase cost, used by sizing and break-even
}

// Validate checks the specification describes a usable battery.
func (b BatterySpecification) Validate() error {
	if b.CapacityKWh <= 0 {
		return fmt.Errorf("%w: capacity %v kWh", ErrInvalidBattery, b.CapacityKWh)
	}
	if b.PowerKW <= 0 {
		return fmt.Errorf("%w: power %v kW", ErrInvalidBattery, b.PowerKW)
	}
	if b.ChargeEfficiency <= 0 || b.ChargeEfficiency > 1 {
		return fmt.Errorf("%w: charge efficiency %v", ErrInvalidBattery, b.ChargeEfficiency)
	}
	if b.DischargeEfficiency <= 0 || b.DischargeEfficiency > 1 {
		return fmt.Errorf("%w: discharge efficiency %v", ErrInvalidBattery, b.DischargeEfficiency)
	}
	if b.MinSoC < 0 || b.MaxSoC > 1 || b.MinSoC >= b.MaxSoC {
		return fmt.Errorf("%w: soc band [%v, %v]", ErrInvalidBattery, b.MinSoC, b.MaxSoC)
	}
	if b.RatedCycleLife <= 0 {
		return fmt.Errorf("%w: cycle life %v", ErrInvalidBattery, b.RatedCycleLife)
	}
	if b.RatedCalendarLife <= 0 {
		return fmt.Errorf("%w: calendar life %v h", ErrInvalidBattery, b.RatedCalendarLife)
	}
	if b.EndOfLifeLoss < 0 || b.EndOfLifeLoss >= 1 {
		return fmt.Errorf("%w: end-of-life loss %v", ErrInvalidBattery, b.EndOfLifeLoss)
	}
	if b.CostPerKWh < 0 {
		return fmt.Errorf("%w: cost per kWh %v", ErrInvalidBattery, b.CostPerKWh)
	}
	return nil
}

// MinEnergy returns the lowest admissible state of energy in kWh.
func (b BatterySpecification) MinEnergy() float64 {
	return b.MinSoC * b.CapacityKWh
}

// MaxEnergy returns the highest admissible state of energy in kWh.
func (b BatterySpecification) MaxEnergy() float64 {
	return b.MaxSoC * b.CapacityKWh
}

// UsableEnergy returns the width of the admissible energy band in kWh.
func (b BatterySpecification) UsableEnergy() float64 {
	return b.MaxEnergy() - b.MinEnergy()
}

// eolLoss returns the end-of-life loss fraction, defaulted when unset.
func (b BatterySpecification) eolLoss() float64 {
	if b.EndOfLifeLoss == 0 {
		return DefaultEndOfLifeLoss
	}
	return b.EndOfLifeLoss
}

// CyclicLossPerCycle returns the capacity loss in percent caused by one full
// equivalent cycle.
func (b BatterySpecification) CyclicLossPerCycle() float64 {
	return b.eolLoss() * 100 / b.RatedCycleLife
}

// CalendarLossPerHour returns the capacity loss in percent caused by one hour
// of existence, throughput or not.
func (b BatterySpecification) CalendarLossPerHour() float64 {
	return b.eolLoss() * 100 / b.RatedCalendarLife
}
