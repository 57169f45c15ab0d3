package test

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aduval/bessplan/app"
	"github.com/aduval/bessplan/config"
	"github.com/aduval/bessplan/core/dispatch/logging"
	"github.com/aduval/bessplan/pkg/export"
	"github.com/aduval/bessplan/simulator"
)

// TestPlanPipeline drives the whole stack the way the CLI does: a synthetic
// series on disk, a YAML configuration, one plan run, and every artifact the
// run leaves behind (exports, the solve journal, the sqlite recorder).
func TestPlanPipeline(t *testing.T) {
	dir := t.TempDir()
	seriesPath := writeSyntheticSeries(t, dir, simulator.Config{
		Start:       time.Date(2024, 6, 29, 0, 0, 0, 0, time.UTC),
		Days:        3,
		StepMinutes: 60,
		PVPeakKW:    30,
		Seed:        42,
	})
	journalPath := filepath.Join(dir, "journal.jsonl")
	dbPath := filepath.Join(dir, "runs.db")

	cfgPath := writeConfigYAML(t, dir, seriesPath, fmt.Sprintf(`battery:
  capacity_kwh: 40
  power_kw: 20
  min_soc: 0.1
  max_soc: 0.9
  cost_per_kwh: 250
tariff:
  demand_brackets:
    - up_to_kw: 40
      rate_per_kw: 4
    - rate_per_kw: 9
  energy_rates:
    - start_hour: 7
      end_hour: 23
      rate_per_kwh: 0.02
dispatch:
  degradation_cost_per_percent: 0.5
economics:
  discount_rate: 0.06
  lifetime_years: 12
metrics:
  sinks:
    - type: jsonl
      conf:
        path: %s
recorder:
  type: sqlite
  conf:
    path: %s
`, journalPath, dbPath))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	out, err := svc.RunPlan(ctx)
	if err != nil {
		t.Fatalf("run plan: %v", err)
	}

	// Three days starting June 29 split into a June and a July window.
	if len(out.Plan.Steps) != 72 {
		t.Fatalf("got %d plan steps, want 72", len(out.Plan.Steps))
	}
	if out.Plan.Windows != 2 {
		t.Fatalf("got %d windows, want 2", out.Plan.Windows)
	}
	if len(out.Plan.Months) != 2 {
		t.Fatalf("got %d month charges, want 2", len(out.Plan.Months))
	}
	if out.Plan.TotalCost > out.Baseline.TotalCost+1e-6 {
		t.Fatalf("plan cost %v above baseline %v", out.Plan.TotalCost, out.Baseline.TotalCost)
	}

	checkExports(t, dir, out)
	checkJournal(t, journalPath)
	checkRecorder(t, dbPath, out)
}

func checkExports(t *testing.T, dir string, out app.PlanOutcome) {
	t.Helper()

	schedPath := filepath.Join(dir, "schedule.csv")
	f, err := os.Create(schedPath)
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	if err := export.WriteScheduleCSV(f, out.Plan); err != nil {
		t.Fatalf("write schedule: %v", err)
	}
	f.Close()
	rows := readCSV(t, schedPath)
	if len(rows) != len(out.Plan.Steps)+1 {
		t.Fatalf("schedule has %d rows, want %d", len(rows), len(out.Plan.Steps)+1)
	}
	if rows[0][0] != "timestamp" || rows[0][6] != "soe_kwh" {
		t.Fatalf("unexpected schedule header %v", rows[0])
	}

	sumPath := filepath.Join(dir, "summary.json")
	f, err = os.Create(sumPath)
	if err != nil {
		t.Fatalf("create summary: %v", err)
	}
	summary := export.Summary{
		RunID:       out.RunID,
		GeneratedAt: time.Now().UTC(),
		CapacityKWh: out.Battery.CapacityKWh,
		PowerKW:     out.Battery.PowerKW,
		Plan:        export.Totals(out.Plan),
		Baseline:    export.Totals(out.Baseline),
		Economics:   export.FromResult(out.Economics),
	}
	if err := export.WriteSummaryJSON(f, summary); err != nil {
		t.Fatalf("write summary: %v", err)
	}
	f.Close()

	raw, err := os.ReadFile(sumPath)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	var decoded export.Summary
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if decoded.RunID != out.RunID {
		t.Fatalf("summary run ID %q, want %q", decoded.RunID, out.RunID)
	}
	if decoded.Plan.TotalCost != out.Plan.TotalCost {
		t.Fatalf("summary total cost %v, want %v", decoded.Plan.TotalCost, out.Plan.TotalCost)
	}
}

// checkJournal waits for the collector to drain both window events into the
// JSONL solve journal.
func checkJournal(t *testing.T, path string) {
	t.Helper()
	store, err := logging.NewJSONLStore(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer store.Close()

	var recs []logging.SolveRecord
	eventually(t, 2*time.Second, func() bool {
		recs, err = store.Query(context.Background(), logging.Query{})
		return err == nil && len(recs) == 2
	}, "2 journal records")

	for _, rec := range recs {
		if !rec.Billing {
			t.Fatalf("journal record at %s not marked billing", rec.Start)
		}
		if rec.Steps == 0 {
			t.Fatalf("journal record at %s has zero steps", rec.Start)
		}
	}
}

func checkRecorder(t *testing.T, dbPath string, out app.PlanOutcome) {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open recorder db: %v", err)
	}
	defer db.Close()

	var runs int
	if err := db.QueryRow(`SELECT COUNT(*) FROM runs WHERE id = ?`, out.RunID).Scan(&runs); err != nil {
		t.Fatalf("count runs: %v", err)
	}
	if runs != 1 {
		t.Fatalf("got %d run rows, want 1", runs)
	}

	var steps int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schedule_steps WHERE run_id = ?`, out.RunID).Scan(&steps); err != nil {
		t.Fatalf("count steps: %v", err)
	}
	if steps != len(out.Plan.Steps) {
		t.Fatalf("got %d schedule rows, want %d", steps, len(out.Plan.Steps))
	}

	var total float64
	if err := db.QueryRow(`SELECT total_cost FROM run_summaries WHERE run_id = ?`, out.RunID).Scan(&total); err != nil {
		t.Fatalf("read summary row: %v", err)
	}
	if total != out.Plan.TotalCost {
		t.Fatalf("recorded total cost %v, want %v", total, out.Plan.TotalCost)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}
