// Package degradation linearizes battery wear into a cyclic term driven by
// energy throughput and a calendar term driven by elapsed time, both
// expressed as capacity-loss percent and monetizable at a configured price.
package degradation

import "github.com/aduval/bessplan/core/model"

// Model evaluates capacity loss for one battery specification. The zero
// CostPerPercent disables monetization without touching the loss estimates.
type Model struct {
	Battery        model.BatterySpecification
	CostPerPercent float64 // currency per percent of capacity lost
}

// New returns a degradation model for the given battery.
func New(battery model.BatterySpecification, costPerPercent float64) Model {
	return Model{Battery: battery, CostPerPercent: costPerPercent}
}

// Cycles converts total throughput (charge plus discharge, kWh) into full
// equivalent cycles: one cycle moves the nameplate capacity in and out once.
func (m Model) Cycles(throughputKWh float64) float64 {
	return throughputKWh / (2 * m.Battery.CapacityKWh)
}

// CyclicLossPercent returns the capacity loss caused by moving the given
// throughput through the battery.
func (m Model) CyclicLossPercent(throughputKWh float64) float64 {
	return m.Cycles(throughputKWh) * m.Battery.CyclicLossPerCycle()
}

// CalendarLossPercent returns the capacity loss caused by the given elapsed
// hours, independent of use. A window with zero throughput degrades exactly
// this much.
func (m Model) CalendarLossPercent(hours float64) float64 {
	return hours * m.Battery.CalendarLossPerHour()
}

// WindowLossPercent returns the combined loss for one dispatch window.
func (m Model) WindowLossPercent(throughputKWh, hours float64) float64 {
	return m.CyclicLossPercent(throughputKWh) + m.CalendarLossPercent(hours)
}

// Cost monetizes a capacity loss.
func (m Model) Cost(percent float64) float64 {
	return percent * m.CostPerPercent
}

// MarginalCostPerKWh returns the cost of moving one kWh through the battery
// in one direction. Charging and discharging each pay this rate, so a full
// round trip of one kWh pays twice, which matches one kWh of throughput on
// each side of the cycle ledger.
func (m Model) MarginalCostPerKWh() float64 {
	return m.CostPerPercent * m.Battery.CyclicLossPerCycle() / (2 * m.Battery.CapacityKWh)
}
