package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aduval/bessplan/core/model"
)

// BatteryDef is the YAML shorthand for a battery. Efficiencies and life
// ratings default to an ideal unit so scenario files stay small.
type BatteryDef struct {
	CapacityKWh   float64 `yaml:"capacity_kwh"`
	PowerKW       float64 `yaml:"power_kw"`
	ChargeEff     float64 `yaml:"charge_efficiency,omitempty"`
	DischargeEff  float64 `yaml:"discharge_efficiency,omitempty"`
	MinSoC        float64 `yaml:"min_soc,omitempty"`
	MaxSoC        float64 `yaml:"max_soc,omitempty"`
	CycleLife     float64 `yaml:"cycle_life,omitempty"`
	CalendarHours float64 `yaml:"calendar_hours,omitempty"`
}

func (b BatteryDef) ToModel() model.BatterySpecification {
	spec := model.BatterySpecification{
		CapacityKWh:         b.CapacityKWh,
		PowerKW:             b.PowerKW,
		ChargeEfficiency:    b.ChargeEff,
		DischargeEfficiency: b.DischargeEff,
		MinSoC:              b.MinSoC,
		MaxSoC:              b.MaxSoC,
		RatedCycleLife:      b.CycleLife,
		RatedCalendarLife:   b.CalendarHours,
	}
	if spec.ChargeEfficiency == 0 {
		spec.ChargeEfficiency = 1
	}
	if spec.DischargeEfficiency == 0 {
		spec.DischargeEfficiency = 1
	}
	if spec.MaxSoC == 0 {
		spec.MaxSoC = 1
	}
	if spec.RatedCycleLife == 0 {
		spec.RatedCycleLife = 5000
	}
	if spec.RatedCalendarLife == 0 {
		spec.RatedCalendarLife = 87600
	}
	return spec
}

type BracketDef struct {
	UpToKW     float64 `yaml:"up_to_kw"`
	RatePerKW  float64 `yaml:"rate_per_kw"`
	MonthlyFee float64 `yaml:"monthly_fee,omitempty"`
}

type RateDef struct {
	StartHour  int     `yaml:"start_hour"`
	EndHour    int     `yaml:"end_hour"`
	RatePerKWh float64 `yaml:"rate_per_kwh"`
}

type TariffDef struct {
	EnergyRates    []RateDef    `yaml:"energy_rates,omitempty"`
	DemandBrackets []BracketDef `yaml:"demand_brackets,omitempty"`
	ImportLimitKW  float64      `yaml:"import_limit_kw,omitempty"`
	ExportLimitKW  float64      `yaml:"export_limit_kw,omitempty"`
}

func (t TariffDef) ToModel() model.Tariff {
	out := model.Tariff{
		ImportLimitKW: t.ImportLimitKW,
		ExportLimitKW: t.ExportLimitKW,
	}
	for _, r := range t.EnergyRates {
		out.EnergyRates = append(out.EnergyRates, model.RatePeriod{
			StartHour: r.StartHour, EndHour: r.EndHour, RatePerKWh: r.RatePerKWh,
		})
	}
	for _, b := range t.DemandBrackets {
		out.DemandBrackets = append(out.DemandBrackets, model.DemandBracket{
			UpToKW: b.UpToKW, RatePerKW: b.RatePerKW, MonthlyFee: b.MonthlyFee,
		})
	}
	return out
}

type StepDef struct {
	ProductionKW float64 `yaml:"production_kw"`
	LoadKW       float64 `yaml:"load_kw"`
	Price        float64 `yaml:"price"`
}

// Expected lists the assertions for one scenario. Pointer fields are only
// checked when present in the file.
type Expected struct {
	MinObjective  *float64 `yaml:"min_objective,omitempty"`
	MaxObjective  *float64 `yaml:"max_objective,omitempty"`
	MaxPeakKW     float64  `yaml:"max_peak_kw,omitempty"`
	MinCurtailKWh float64  `yaml:"min_curtail_kwh,omitempty"`
	Idle          bool     `yaml:"idle,omitempty"`
	Infeasible    bool     `yaml:"infeasible,omitempty"`
}

type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	DtHours     float64    `yaml:"dt_hours,omitempty"`
	Billing     bool       `yaml:"billing,omitempty"`
	InitialSoC  float64    `yaml:"initial_soc"`
	WearCost    float64    `yaml:"degradation_cost_per_percent,omitempty"`
	Battery     BatteryDef `yaml:"battery"`
	Tariff      TariffDef  `yaml:"tariff,omitempty"`
	Steps       []StepDef  `yaml:"steps"`
	Expected    Expected   `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.DtHours == 0 {
		sc.DtHours = 1
	}
	return &sc, nil
}
