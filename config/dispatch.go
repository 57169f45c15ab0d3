package config

import (
	"fmt"

	"github.com/aduval/bessplan/core/dispatch"
)

// DispatchConfig tunes the per-window optimizer.
type DispatchConfig struct {
	// DegradationCostPerPercent prices one percent of battery life lost.
	// Zero leaves wear out of the objective.
	DegradationCostPerPercent float64 `json:"degradation_cost_per_percent"`
	// SimplexTolerance is passed to the LP solver. Zero keeps the default.
	SimplexTolerance float64 `json:"simplex_tolerance"`
	// MaxBracketIterations caps the demand-bracket fixed point loop.
	MaxBracketIterations int `json:"max_bracket_iterations"`
}

// ToStrategy converts the section into the optimizer strategy.
func (c DispatchConfig) ToStrategy() dispatch.Strategy {
	return dispatch.Strategy{
		DegradationCostPerPercent: c.DegradationCostPerPercent,
		SimplexTol:                c.SimplexTolerance,
		MaxBracketIterations:      c.MaxBracketIterations,
	}
}

// Validate checks the ranges.
func (c DispatchConfig) Validate() error {
	if c.DegradationCostPerPercent < 0 {
		return fmt.Errorf("degradation_cost_per_percent must not be negative")
	}
	if c.SimplexTolerance < 0 {
		return fmt.Errorf("simplex_tolerance must not be negative")
	}
	if c.MaxBracketIterations < 0 {
		return fmt.Errorf("max_bracket_iterations must not be negative")
	}
	return nil
}
