package compress

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/aduval/bessplan/core/model"
)

// sixDays builds six contiguous flat-load days in one month, loads cycling
// 10, 20, 30 kW.
func sixDays(t *testing.T) model.Series {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := model.Series{DtHours: 1, Steps: make([]model.Timestep, 6*24)}
	for i := range s.Steps {
		s.Steps[i] = model.Timestep{
			Start:  base.Add(time.Duration(i) * time.Hour),
			LoadKW: 10 * float64(i/24%3+1),
			Price:  0.1,
		}
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return s
}

func TestReduceShapeAndScale(t *testing.T) {
	got, err := Reduce(sixDays(t), Config{})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	// 144 h in one month collapse into one 24 h average day.
	if len(got.Series.Steps) != 24 {
		t.Fatalf("expected 24 steps, got %d", len(got.Series.Steps))
	}
	if math.Abs(got.AnnualScale-6) > 1e-12 {
		t.Fatalf("scale: expected 6 got %v", got.AnnualScale)
	}
	if err := got.Series.Validate(); err != nil {
		t.Fatalf("reduced series must validate: %v", err)
	}
}

func TestReduceAverageDay(t *testing.T) {
	got, err := Reduce(sixDays(t), Config{})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	// Days carry loads 10, 20, 30 twice over: the average day is flat 20.
	for i, st := range got.Series.Steps {
		if math.Abs(st.LoadKW-20) > 1e-12 {
			t.Fatalf("step %d: expected 20 kW got %v", i, st.LoadKW)
		}
	}
}

func TestReduceGroupsByCalendarMonth(t *testing.T) {
	// Four contiguous days straddling the month boundary: two in January
	// (10, 20 kW), two in February (30, 40 kW).
	base := time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC)
	s := model.Series{DtHours: 1, Steps: make([]model.Timestep, 4*24)}
	for i := range s.Steps {
		s.Steps[i] = model.Timestep{
			Start:  base.Add(time.Duration(i) * time.Hour),
			LoadKW: 10 * float64(i/24+1),
			Price:  0.1,
		}
	}

	got, err := Reduce(s, Config{})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if len(got.Series.Steps) != 48 {
		t.Fatalf("expected one average day per month, got %d steps", len(got.Series.Steps))
	}
	if got.Series.Steps[0].LoadKW != 15 || got.Series.Steps[24].LoadKW != 35 {
		t.Fatalf("month averages: %v and %v", got.Series.Steps[0].LoadKW, got.Series.Steps[24].LoadKW)
	}
}

func TestReducePeakDays(t *testing.T) {
	got, err := Reduce(sixDays(t), Config{IncludePeakDays: true})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if len(got.Series.Steps) != 48 {
		t.Fatalf("expected 48 steps, got %d", len(got.Series.Steps))
	}
	// Average day first, then the 30 kW peak day.
	if got.Series.Steps[0].LoadKW != 20 || got.Series.Steps[24].LoadKW != 30 {
		t.Fatalf("day order: %v then %v", got.Series.Steps[0].LoadKW, got.Series.Steps[24].LoadKW)
	}
	if math.Abs(got.AnnualScale-3) > 1e-12 {
		t.Fatalf("scale: expected 3 got %v", got.AnnualScale)
	}
}

func TestReduceDeterministic(t *testing.T) {
	s := sixDays(t)
	first, err := Reduce(s, Config{IncludePeakDays: true})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	second, err := Reduce(s, Config{IncludePeakDays: true})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reduction is not deterministic")
	}
}

func TestReduceDropsPartialDay(t *testing.T) {
	s := sixDays(t)
	s.Steps = append(s.Steps, model.Timestep{
		Start:  s.Steps[len(s.Steps)-1].Start.Add(time.Hour),
		LoadKW: 999,
	})
	got, err := Reduce(s, Config{IncludePeakDays: true})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	for _, st := range got.Series.Steps {
		if st.LoadKW > 30 {
			t.Fatalf("partial trailing day leaked into the reduction")
		}
	}
}

func TestReduceRejectsShortSeries(t *testing.T) {
	s := model.Series{DtHours: 1, Steps: make([]model.Timestep, 4)}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range s.Steps {
		s.Steps[i] = model.Timestep{Start: base.Add(time.Duration(i) * time.Hour)}
	}
	if _, err := Reduce(s, Config{}); !errors.Is(err, model.ErrAlignment) {
		t.Fatalf("expected ErrAlignment, got %v", err)
	}
}
