package config

import "github.com/aduval/bessplan/core/model"

// RatePeriodConfig is a daily time-of-use window with its delivery rate.
type RatePeriodConfig struct {
	StartHour  int     `json:"start_hour"`
	EndHour    int     `json:"end_hour"`
	RatePerKWh float64 `json:"rate_per_kwh"`
}

// DemandBracketConfig is one tier of the monthly demand charge.
type DemandBracketConfig struct {
	UpToKW     float64 `json:"up_to_kw"`
	RatePerKW  float64 `json:"rate_per_kw"`
	MonthlyFee float64 `json:"monthly_fee"`
}

// TariffConfig describes the utility tariff applied to grid exchange.
type TariffConfig struct {
	EnergyRates    []RatePeriodConfig    `json:"energy_rates"`
	DemandBrackets []DemandBracketConfig `json:"demand_brackets"`
	ExportLimitKW  float64               `json:"export_limit_kw"`
	ImportLimitKW  float64               `json:"import_limit_kw"`
}

// ToModel converts the section into the core tariff.
func (c TariffConfig) ToModel() model.Tariff {
	t := model.Tariff{
		ExportLimitKW: c.ExportLimitKW,
		ImportLimitKW: c.ImportLimitKW,
	}
	for _, r := range c.EnergyRates {
		t.EnergyRates = append(t.EnergyRates, model.RatePeriod{
			StartHour:  r.StartHour,
			EndHour:    r.EndHour,
			RatePerKWh: r.RatePerKWh,
		})
	}
	for _, b := range c.DemandBrackets {
		t.DemandBrackets = append(t.DemandBrackets, model.DemandBracket{
			UpToKW:     b.UpToKW,
			RatePerKW:  b.RatePerKW,
			MonthlyFee: b.MonthlyFee,
		})
	}
	return t
}

// Validate delegates to the core tariff validation.
func (c TariffConfig) Validate() error {
	return c.ToModel().Validate()
}
