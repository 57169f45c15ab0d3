package config

import "fmt"

// BreakevenConfig brackets the bisection over storage purchase price.
type BreakevenConfig struct {
	// MinCostPerKWh and MaxCostPerKWh bracket the search. The project must
	// be profitable at the low edge and unprofitable at the high one.
	MinCostPerKWh float64 `json:"min_cost_per_kwh"`
	MaxCostPerKWh float64 `json:"max_cost_per_kwh"`
	// Tolerance is the bracket width to stop at, currency per kWh.
	Tolerance     float64 `json:"tolerance"`
	MaxIterations int     `json:"max_iterations"`
}

// SetDefaults applies fallback values for optional fields.
func (c *BreakevenConfig) SetDefaults() {
	if c.MaxCostPerKWh == 0 {
		c.MaxCostPerKWh = 2000
	}
}

// Validate checks the bracket shape.
func (c BreakevenConfig) Validate() error {
	if c.MinCostPerKWh < 0 {
		return fmt.Errorf("min_cost_per_kwh must not be negative")
	}
	if c.MaxCostPerKWh <= c.MinCostPerKWh {
		return fmt.Errorf("max_cost_per_kwh %v must exceed min_cost_per_kwh %v",
			c.MaxCostPerKWh, c.MinCostPerKWh)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must not be negative")
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must not be negative")
	}
	return nil
}
