package simulator

import (
	"fmt"
	"time"
)

// Config parameterizes one synthetic site.
type Config struct {
	Start       time.Time
	Days        int
	StepMinutes int

	// Load shape: a flat base plus morning and evening peaks.
	LoadBaseKW float64
	LoadPeakKW float64

	// PVPeakKW scales the midday production half-wave. Zero disables PV.
	PVPeakKW float64

	// Price shape: a duck curve around PriceBase, currency/kWh. PriceSwing
	// is the amplitude of the morning/evening humps and the midday dip.
	PriceBase  float64
	PriceSwing float64

	// Noise adds seeded jitter as a fraction of each value, 0 to disable.
	Noise float64
	Seed  uint64
}

// SetDefaults fills a plausible commercial site.
func (c *Config) SetDefaults() {
	if c.Start.IsZero() {
		c.Start = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	}
	if c.Days == 0 {
		c.Days = 7
	}
	if c.StepMinutes == 0 {
		c.StepMinutes = 15
	}
	if c.LoadBaseKW == 0 {
		c.LoadBaseKW = 20
	}
	if c.LoadPeakKW == 0 {
		c.LoadPeakKW = 60
	}
	if c.PriceBase == 0 {
		c.PriceBase = 0.12
	}
	if c.PriceSwing == 0 {
		c.PriceSwing = 0.08
	}
}

// Validate rejects shapes that cannot produce a well-formed series.
func (c Config) Validate() error {
	if c.Days < 1 {
		return fmt.Errorf("days %d", c.Days)
	}
	if c.StepMinutes < 1 || 1440%c.StepMinutes != 0 {
		return fmt.Errorf("step %d min must divide a day", c.StepMinutes)
	}
	if c.LoadBaseKW < 0 || c.LoadPeakKW < 0 || c.PVPeakKW < 0 {
		return fmt.Errorf("negative shape parameter")
	}
	if c.Noise < 0 || c.Noise >= 1 {
		return fmt.Errorf("noise fraction %v outside [0,1)", c.Noise)
	}
	return nil
}
