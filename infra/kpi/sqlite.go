// Package kpi persists the daily energy ledger in SQLite, so site KPIs
// survive across planning runs and can be rebuilt by the backfill job.
package kpi

import (
	"database/sql"
	"time"

	"github.com/aduval/bessplan/core/metrics/ledger"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a ledger.Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS energy_ledger (
        day            INTEGER PRIMARY KEY,
        import_kwh     REAL,
        export_kwh     REAL,
        throughput_kwh REAL,
        energy_cost    REAL
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add folds the record into its day row.
func (s *SQLiteStore) Add(r ledger.Record) error {
	d := ledger.Day(r.Date)
	_, err := s.db.Exec(`INSERT INTO energy_ledger (day, import_kwh, export_kwh, throughput_kwh, energy_cost)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(day) DO UPDATE SET
            import_kwh = import_kwh + excluded.import_kwh,
            export_kwh = export_kwh + excluded.export_kwh,
            throughput_kwh = throughput_kwh + excluded.throughput_kwh,
            energy_cost = energy_cost + excluded.energy_cost`,
		d.Unix(), r.ImportKWh, r.ExportKWh, r.ThroughputKWh, r.EnergyCost)
	return err
}

// Query returns day records in the range [start, end].
func (s *SQLiteStore) Query(start, end time.Time) ([]ledger.Record, error) {
	start = ledger.Day(start)
	end = ledger.Day(end)
	rows, err := s.db.Query(`SELECT day, import_kwh, export_kwh, throughput_kwh, energy_cost
        FROM energy_ledger WHERE day >= ? AND day <= ? ORDER BY day`,
		start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []ledger.Record
	for rows.Next() {
		var ts int64
		var rec ledger.Record
		if err := rows.Scan(&ts, &rec.ImportKWh, &rec.ExportKWh, &rec.ThroughputKWh, &rec.EnergyCost); err != nil {
			return nil, err
		}
		rec.Date = time.Unix(ts, 0).UTC()
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
