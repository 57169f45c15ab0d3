package config

import "github.com/aduval/bessplan/core/sizing"

// SizingConfig bounds and tunes the outer search over battery dimensions.
type SizingConfig struct {
	MinCapacityKWh float64 `json:"min_capacity_kwh"`
	MaxCapacityKWh float64 `json:"max_capacity_kwh"`
	MinPowerKW     float64 `json:"min_power_kw"`
	MaxPowerKW     float64 `json:"max_power_kw"`
	// MinHoursRatio/MaxHoursRatio screen candidates by storage duration
	// (capacity over power, hours) before any solve. 0 disables a side.
	MinHoursRatio float64 `json:"min_hours_ratio"`
	MaxHoursRatio float64 `json:"max_hours_ratio"`

	Population  int     `json:"population"`
	Generations int     `json:"generations"`
	Weight      float64 `json:"weight"`
	Crossover   float64 `json:"crossover"`
	Seed        uint64  `json:"seed"`
	Workers     int     `json:"workers"`
}

// SetDefaults applies fallback values for optional fields.
func (c *SizingConfig) SetDefaults() {
	if c.MinCapacityKWh == 0 {
		c.MinCapacityKWh = 10
	}
	if c.MaxCapacityKWh == 0 {
		c.MaxCapacityKWh = 500
	}
	if c.MinPowerKW == 0 {
		c.MinPowerKW = 5
	}
	if c.MaxPowerKW == 0 {
		c.MaxPowerKW = 250
	}
	if c.MinHoursRatio == 0 {
		c.MinHoursRatio = 0.5
	}
	if c.MaxHoursRatio == 0 {
		c.MaxHoursRatio = 8
	}
}

// ToBounds converts the box limits into the search bounds.
func (c SizingConfig) ToBounds() sizing.Bounds {
	return sizing.Bounds{
		MinCapacityKWh: c.MinCapacityKWh,
		MaxCapacityKWh: c.MaxCapacityKWh,
		MinPowerKW:     c.MinPowerKW,
		MaxPowerKW:     c.MaxPowerKW,
		MinHoursRatio:  c.MinHoursRatio,
		MaxHoursRatio:  c.MaxHoursRatio,
	}
}

// ToSearch converts the evolution knobs into the search configuration.
func (c SizingConfig) ToSearch() sizing.Config {
	return sizing.Config{
		Population:  c.Population,
		Generations: c.Generations,
		Weight:      c.Weight,
		Crossover:   c.Crossover,
		Seed:        c.Seed,
		Workers:     c.Workers,
	}
}

// Validate delegates to the core bounds validation.
func (c SizingConfig) Validate() error {
	return c.ToBounds().Validate()
}
