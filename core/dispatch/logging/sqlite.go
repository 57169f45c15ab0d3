package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/aduval/bessplan/core/model"
)

// SQLiteStore persists solve records to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS solve_journal (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        start INTEGER,
        month TEXT,
        billing INTEGER,
        record TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec SolveRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	billing := 0
	if rec.Billing {
		billing = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO solve_journal (start, month, billing, record) VALUES (?, ?, ?, ?)`,
		rec.Start.Unix(), model.MonthOf(rec.Start).Format("2006-01"), billing, string(b))
	return err
}

// Query returns records matching q.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]SolveRecord, error) {
	var args []any
	query := `SELECT record FROM solve_journal WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND start >= ?`
		args = append(args, q.Start.Unix())
	}
	if !q.End.IsZero() {
		query += ` AND start <= ?`
		args = append(args, q.End.Unix())
	}
	if !q.Month.IsZero() {
		query += ` AND month = ?`
		args = append(args, model.MonthOf(q.Month).Format("2006-01"))
	}
	if q.BillingOnly {
		query += ` AND billing = 1`
	}
	query += ` ORDER BY start`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []SolveRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r SolveRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
