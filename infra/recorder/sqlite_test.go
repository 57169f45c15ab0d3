package recorder

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/aduval/bessplan/core/econ"
	"github.com/aduval/bessplan/core/horizon"
	"github.com/aduval/bessplan/core/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "plans.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	r := openTestRecorder(t)

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	run := RunInfo{
		ID:          "run-1",
		StartedAt:   start,
		Mode:        "committed",
		CapacityKWh: 100,
		PowerKW:     25,
		Steps:       2,
		DtHours:     1,
	}
	if err := r.RecordRun(run); err != nil {
		t.Fatalf("run: %v", err)
	}

	steps := []model.ScheduleStep{
		{Start: start, ChargeKW: 10, GridImportKW: 10, SOEKWh: 10},
		{Start: start.Add(time.Hour), DischargeKW: 10, GridExportKW: 10, SOEKWh: 0},
	}
	if err := r.RecordSchedule("run-1", steps); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	months := []horizon.MonthCharge{{Month: start, PeakKW: 10, BracketIndex: 0, Charge: 100}}
	if err := r.RecordMonths("run-1", months); err != nil {
		t.Fatalf("months: %v", err)
	}

	plan := horizon.Plan{EnergyCost: 1.5, DemandCharges: 100, TotalCost: 101.5}
	if err := r.RecordSummary("run-1", plan); err != nil {
		t.Fatalf("summary: %v", err)
	}

	res := econ.Result{Investment: 1000, AnnualSavings: 400, NPV: 250, IRR: 0.12, IRRValid: true, PaybackYears: 2.5, BreakEvenPerKWh: 12.5}
	if err := r.RecordEconomics("run-1", res); err != nil {
		t.Fatalf("economics: %v", err)
	}

	var nSteps, nMonths int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM schedule_steps WHERE run_id = ?`, "run-1").Scan(&nSteps); err != nil {
		t.Fatalf("count steps: %v", err)
	}
	if nSteps != 2 {
		t.Fatalf("expected 2 steps, got %d", nSteps)
	}
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM month_charges WHERE run_id = ?`, "run-1").Scan(&nMonths); err != nil {
		t.Fatalf("count months: %v", err)
	}
	if nMonths != 1 {
		t.Fatalf("expected 1 month, got %d", nMonths)
	}

	var total float64
	if err := r.db.QueryRow(`SELECT total_cost FROM run_summaries WHERE run_id = ?`, "run-1").Scan(&total); err != nil {
		t.Fatalf("summary query: %v", err)
	}
	if total != 101.5 {
		t.Fatalf("expected 101.5 got %v", total)
	}

	var payback float64
	if err := r.db.QueryRow(`SELECT payback_years FROM economics WHERE run_id = ?`, "run-1").Scan(&payback); err != nil {
		t.Fatalf("econ query: %v", err)
	}
	if payback != 2.5 {
		t.Fatalf("expected 2.5 got %v", payback)
	}
}

func TestSQLiteRecorder_InfinitePaybackStoredAsNull(t *testing.T) {
	r := openTestRecorder(t)

	if err := r.RecordEconomics("run-2", econ.Result{PaybackYears: math.Inf(1)}); err != nil {
		t.Fatalf("economics: %v", err)
	}
	var payback *float64
	if err := r.db.QueryRow(`SELECT payback_years FROM economics WHERE run_id = ?`, "run-2").Scan(&payback); err != nil {
		t.Fatalf("query: %v", err)
	}
	if payback != nil {
		t.Fatalf("expected NULL payback, got %v", *payback)
	}
}

func TestSQLiteRecorder_DuplicateRunRejected(t *testing.T) {
	r := openTestRecorder(t)

	run := RunInfo{ID: "run-3", StartedAt: time.Now()}
	if err := r.RecordRun(run); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := r.RecordRun(run); err == nil {
		t.Fatal("expected primary key violation")
	}
}
