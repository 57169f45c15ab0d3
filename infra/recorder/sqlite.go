package recorder

import (
	"database/sql"
	"fmt"
	"math"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/aduval/bessplan/core/econ"
	"github.com/aduval/bessplan/core/horizon"
	"github.com/aduval/bessplan/core/model"
	"github.com/aduval/bessplan/infra/logger"
)

// SQLiteRecorder persists planning runs to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log logger.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (dashboards read while runs write).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logger.New("sqlite-recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id                   TEXT PRIMARY KEY,
			started_at           INTEGER NOT NULL,
			mode                 TEXT,
			battery_capacity_kwh REAL,
			battery_power_kw     REAL,
			steps                INTEGER,
			dt_hours             REAL
		)`,

		`CREATE TABLE IF NOT EXISTS schedule_steps (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL,
			timestamp      INTEGER NOT NULL,
			charge_kw      REAL,
			discharge_kw   REAL,
			grid_import_kw REAL,
			grid_export_kw REAL,
			curtail_kw     REAL,
			soe_kwh        REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_steps_run ON schedule_steps(run_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS month_charges (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL,
			month         INTEGER NOT NULL,
			peak_kw       REAL,
			bracket_index INTEGER,
			charge        REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_months_run ON month_charges(run_id)`,

		`CREATE TABLE IF NOT EXISTS run_summaries (
			run_id              TEXT PRIMARY KEY,
			energy_cost         REAL,
			demand_charges      REAL,
			degradation_cost    REAL,
			degradation_percent REAL,
			total_cost          REAL,
			final_soe_kwh       REAL
		)`,

		`CREATE TABLE IF NOT EXISTS economics (
			run_id             TEXT PRIMARY KEY,
			investment         REAL,
			annual_savings     REAL,
			npv                REAL,
			irr                REAL,
			irr_valid          INTEGER,
			payback_years      REAL,
			break_even_per_kwh REAL
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun inserts the run header row.
func (r *SQLiteRecorder) RecordRun(run RunInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO runs
		(id, started_at, mode, battery_capacity_kwh, battery_power_kw, steps, dt_hours)
		VALUES (?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), run.Mode,
		run.CapacityKWh, run.PowerKW, run.Steps, run.DtHours,
	)
	return err
}

// RecordSchedule bulk-inserts the dispatch steps inside one transaction.
func (r *SQLiteRecorder) RecordSchedule(runID string, steps []model.ScheduleStep) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO schedule_steps
		(run_id, timestamp, charge_kw, discharge_kw, grid_import_kw, grid_export_kw, curtail_kw, soe_kwh)
		VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, s := range steps {
		if _, err := stmt.Exec(runID, s.Start.Unix(),
			s.ChargeKW, s.DischargeKW, s.GridImportKW, s.GridExportKW, s.CurtailKW, s.SOEKWh); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// RecordMonths inserts the settled billing months.
func (r *SQLiteRecorder) RecordMonths(runID string, months []horizon.MonthCharge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range months {
		if _, err := r.db.Exec(`INSERT INTO month_charges
			(run_id, month, peak_kw, bracket_index, charge)
			VALUES (?,?,?,?,?)`,
			runID, m.Month.Unix(), m.PeakKW, m.BracketIndex, m.Charge); err != nil {
			return err
		}
	}
	return nil
}

// RecordSummary inserts the plan cost totals.
func (r *SQLiteRecorder) RecordSummary(runID string, plan horizon.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO run_summaries
		(run_id, energy_cost, demand_charges, degradation_cost, degradation_percent, total_cost, final_soe_kwh)
		VALUES (?,?,?,?,?,?,?)`,
		runID, plan.EnergyCost, plan.DemandCharges,
		plan.DegradationCost, plan.DegradationPercent, plan.TotalCost, plan.Final.SOEKWh,
	)
	return err
}

// RecordEconomics inserts the investment appraisal. Non-finite values
// (an unreachable payback) are stored as NULL.
func (r *SQLiteRecorder) RecordEconomics(runID string, res econ.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO economics
		(run_id, investment, annual_savings, npv, irr, irr_valid, payback_years, break_even_per_kwh)
		VALUES (?,?,?,?,?,?,?,?)`,
		runID, res.Investment, res.AnnualSavings, res.NPV,
		res.IRR, res.IRRValid, nullableFloat(res.PaybackYears), res.BreakEvenPerKWh,
	)
	return err
}

// Close releases the database handle.
func (r *SQLiteRecorder) Close() error {
	r.log.Infof("closing sqlite recorder")
	return r.db.Close()
}

func nullableFloat(f float64) any {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return f
}
