// Package series loads production/load/price time series from CSV files.
//
// Expected format:
//
//	timestamp,production_kw,load_kw,price
//	2024-06-01T00:00:00Z,0,12.5,0.084
//
// An optional fifth column energy_rate carries a per-step delivery rate.
// Unlike telemetry ingest, planner input is strict: any unparseable row is
// an error, because a silently dropped row would break step alignment.
package series

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aduval/bessplan/core/model"
)

var columns = []string{"timestamp", "production_kw", "load_kw", "price"}

// LoadFile reads the CSV file at path into a validated series.
func LoadFile(path string) (model.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Series{}, fmt.Errorf("open series: %w", err)
	}
	defer f.Close()
	s, err := Parse(f)
	if err != nil {
		return model.Series{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse reads CSV records from r into a validated series. The step length
// is inferred from the first two timestamps; Series.Validate then holds the
// rest of the file to that spacing.
func Parse(r io.Reader) (model.Series, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return model.Series{}, fmt.Errorf("reading CSV header: %w", err)
	}
	hasRate, err := validateHeader(header)
	if err != nil {
		return model.Series{}, err
	}

	var steps []model.Timestep
	lineNum := 1 // header was line 1
	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Series{}, fmt.Errorf("reading CSV line %d: %w", lineNum, err)
		}
		step, err := parseRecord(record, lineNum, hasRate)
		if err != nil {
			return model.Series{}, err
		}
		steps = append(steps, step)
	}

	if len(steps) < 2 {
		return model.Series{}, fmt.Errorf("%w: need at least 2 rows to infer resolution, got %d",
			model.ErrAlignment, len(steps))
	}

	s := model.Series{
		Steps:   steps,
		DtHours: steps[1].Start.Sub(steps[0].Start).Hours(),
	}
	if err := s.Validate(); err != nil {
		return model.Series{}, err
	}
	return s, nil
}

func validateHeader(header []string) (hasRate bool, err error) {
	if len(header) < len(columns) {
		return false, fmt.Errorf("expected at least %d columns, got %d", len(columns), len(header))
	}
	for i, col := range columns {
		if strings.TrimSpace(header[i]) != col {
			return false, fmt.Errorf("expected column %d to be %q, got %q", i, col, header[i])
		}
	}
	if len(header) > len(columns) {
		if strings.TrimSpace(header[len(columns)]) != "energy_rate" {
			return false, fmt.Errorf("expected column %d to be %q, got %q",
				len(columns), "energy_rate", header[len(columns)])
		}
		hasRate = true
	}
	return hasRate, nil
}

func parseRecord(record []string, lineNum int, hasRate bool) (model.Timestep, error) {
	want := len(columns)
	if hasRate {
		want++
	}
	if len(record) < want {
		return model.Timestep{}, fmt.Errorf("line %d: expected %d fields, got %d", lineNum, want, len(record))
	}

	ts, err := parseTime(strings.TrimSpace(record[0]))
	if err != nil {
		return model.Timestep{}, fmt.Errorf("line %d: parsing timestamp %q: %w", lineNum, record[0], err)
	}

	vals := make([]float64, 0, want-1)
	for i := 1; i < want; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
		if err != nil {
			return model.Timestep{}, fmt.Errorf("line %d: parsing %s %q: %w", lineNum, columnName(i), record[i], err)
		}
		vals = append(vals, v)
	}

	step := model.Timestep{
		Start:        ts,
		ProductionKW: vals[0],
		LoadKW:       vals[1],
		Price:        vals[2],
	}
	if hasRate {
		step.EnergyRate = vals[3]
	}
	return step, nil
}

func parseTime(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return ts, nil
	}
	// Try alternate formats
	return time.Parse("2006-01-02 15:04:05", s)
}

func columnName(i int) string {
	if i < len(columns) {
		return columns[i]
	}
	return "energy_rate"
}
