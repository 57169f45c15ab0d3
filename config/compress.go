package config

import "github.com/aduval/bessplan/core/compress"

// CompressConfig enables representative-period reduction of the input series.
// When enabled, every run of the service solves the reduced series and costs
// are annualized through the reduction factor.
type CompressConfig struct {
	Enabled bool `json:"enabled"`
	// IncludePeakDays keeps each month's highest-load day next to its
	// average day, preserving demand spikes.
	IncludePeakDays bool `json:"include_peak_days"`
}

// ToModel converts the section into the reducer configuration.
func (c CompressConfig) ToModel() compress.Config {
	return compress.Config{IncludePeakDays: c.IncludePeakDays}
}
