package config

import "github.com/aduval/bessplan/core/model"

// BatteryConfig describes the storage system under study.
type BatteryConfig struct {
	CapacityKWh         float64 `json:"capacity_kwh"`
	PowerKW             float64 `json:"power_kw"`
	ChargeEfficiency    float64 `json:"charge_efficiency"`
	DischargeEfficiency float64 `json:"discharge_efficiency"`
	MinSoC              float64 `json:"min_soc"`
	MaxSoC              float64 `json:"max_soc"`
	RatedCycleLife      float64 `json:"rated_cycle_life"`
	RatedCalendarLife   float64 `json:"rated_calendar_life_hours"`
	EndOfLifeLoss       float64 `json:"end_of_life_loss"`
	CostPerKWh          float64 `json:"cost_per_kwh"`
}

// SetDefaults applies fallback values for optional fields.
func (c *BatteryConfig) SetDefaults() {
	if c.ChargeEfficiency == 0 {
		c.ChargeEfficiency = 0.95
	}
	if c.DischargeEfficiency == 0 {
		c.DischargeEfficiency = 0.95
	}
	if c.MaxSoC == 0 {
		c.MaxSoC = 1
	}
	if c.RatedCycleLife == 0 {
		c.RatedCycleLife = 5000
	}
	if c.RatedCalendarLife == 0 {
		c.RatedCalendarLife = 10 * 365 * 24
	}
}

// ToModel converts the section into the core battery specification.
func (c BatteryConfig) ToModel() model.BatterySpecification {
	return model.BatterySpecification{
		CapacityKWh:         c.CapacityKWh,
		PowerKW:             c.PowerKW,
		ChargeEfficiency:    c.ChargeEfficiency,
		DischargeEfficiency: c.DischargeEfficiency,
		MinSoC:              c.MinSoC,
		MaxSoC:              c.MaxSoC,
		RatedCycleLife:      c.RatedCycleLife,
		RatedCalendarLife:   c.RatedCalendarLife,
		EndOfLifeLoss:       c.EndOfLifeLoss,
		CostPerKWh:          c.CostPerKWh,
	}
}

// Validate delegates to the core battery validation.
func (c BatteryConfig) Validate() error {
	return c.ToModel().Validate()
}
