package config

import (
	"fmt"

	"github.com/aduval/bessplan/core/econ"
)

// EconomicsConfig sets the project finance assumptions.
type EconomicsConfig struct {
	// DiscountRate is the annual rate used for present-value calculations.
	DiscountRate float64 `json:"discount_rate"`
	// LifetimeYears is the evaluation horizon of the investment.
	LifetimeYears int `json:"lifetime_years"`
}

// SetDefaults applies fallback values for optional fields.
func (c *EconomicsConfig) SetDefaults() {
	if c.DiscountRate == 0 {
		c.DiscountRate = 0.05
	}
	if c.LifetimeYears == 0 {
		c.LifetimeYears = 10
	}
}

// ToEvaluator converts the section into an evaluator. The annual scale comes
// from the series (1 for a full year, the compressor's factor otherwise).
func (c EconomicsConfig) ToEvaluator(annualScale float64) econ.Evaluator {
	return econ.Evaluator{
		DiscountRate:  c.DiscountRate,
		LifetimeYears: c.LifetimeYears,
		AnnualScale:   annualScale,
	}
}

// Validate checks the ranges.
func (c EconomicsConfig) Validate() error {
	if c.DiscountRate <= -1 {
		return fmt.Errorf("discount_rate %v must be above -1", c.DiscountRate)
	}
	if c.LifetimeYears < 1 {
		return fmt.Errorf("lifetime_years %d must be at least 1", c.LifetimeYears)
	}
	return nil
}
