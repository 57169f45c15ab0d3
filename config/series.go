package config

import "fmt"

// SeriesConfig locates the input time series.
type SeriesConfig struct {
	// Path is the CSV file holding timestamp, production_kw, load_kw, price.
	Path string `json:"path"`
	// InitialSOEKWh is the battery state of energy at the first step.
	InitialSOEKWh float64 `json:"initial_soe_kwh"`
}

// Validate checks mandatory fields.
func (c SeriesConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.InitialSOEKWh < 0 {
		return fmt.Errorf("initial_soe_kwh must not be negative")
	}
	return nil
}
