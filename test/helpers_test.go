package test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aduval/bessplan/core/model"
	"github.com/aduval/bessplan/simulator"
)

// writeSyntheticSeries generates a seeded site and writes it where the
// planner expects it, returning the CSV path.
func writeSyntheticSeries(t *testing.T, dir string, cfg simulator.Config) string {
	t.Helper()
	cfg.SetDefaults()
	s, err := simulator.Generate(cfg)
	if err != nil {
		t.Fatalf("generate series: %v", err)
	}
	path := filepath.Join(dir, "series.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create series: %v", err)
	}
	defer f.Close()
	if err := simulator.WriteCSV(f, s); err != nil {
		t.Fatalf("write series: %v", err)
	}
	return path
}

// writeConfigYAML renders a full planner configuration pointing at the given
// series and artifact directory.
func writeConfigYAML(t *testing.T, dir, seriesPath, body string) string {
	t.Helper()
	cfg := fmt.Sprintf(`series:
  path: %s
  initial_soe_kwh: 0
%s`, seriesPath, body)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}

func testBattery(capacityKWh, powerKW float64) model.BatterySpecification {
	return model.BatterySpecification{
		CapacityKWh:         capacityKWh,
		PowerKW:             powerKW,
		ChargeEfficiency:    0.95,
		DischargeEfficiency: 0.95,
		MaxSoC:              1,
		RatedCycleLife:      5000,
		RatedCalendarLife:   87600,
	}
}

func demandTariff() model.Tariff {
	return model.Tariff{
		DemandBrackets: []model.DemandBracket{
			{UpToKW: 40, RatePerKW: 4},
			{RatePerKW: 9},
		},
		EnergyRates: []model.RatePeriod{
			{StartHour: 7, EndHour: 23, RatePerKWh: 0.02},
		},
	}
}
