package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrAlignment indicates the input series is not a uniformly spaced,
// well-formed table. The core fails fast on it rather than truncating or
// padding.
var ErrAlignment = errors.New("series alignment mismatch")

// Timestep is one row of the aligned input table: average production and
// load over the step, the spot price and the applicable time-of-use energy
// rate. The rate is charged on grid imports only.
type Timestep struct {
	Start        time.Time
	ProductionKW float64
	LoadKW       float64
	Price        float64 // spot price, currency/kWh
	EnergyRate   float64 // tariff adder on imports, currency/kWh
}

// Series is the full aligned input owned by the caller. It is treated as
// immutable once validated.
type Series struct {
	Steps   []Timestep
	DtHours float64 // fixed step duration in hours
}

// Validate checks the series is non-empty, uniformly spaced at DtHours and
// free of non-finite or negative physical values. Prices may be negative.
func (s Series) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: empty series", ErrAlignment)
	}
	if s.DtHours <= 0 {
		return fmt.Errorf("%w: step duration %v h", ErrAlignment, s.DtHours)
	}
	const tol = 1e-9
	for i, st := range s.Steps {
		if !finite(st.ProductionKW) || !finite(st.LoadKW) || !finite(st.Price) || !finite(st.EnergyRate) {
			return fmt.Errorf("%w: non-finite value at step %d (%s)", ErrAlignment, i, st.Start.Format(time.RFC3339))
		}
		if st.ProductionKW < 0 || st.LoadKW < 0 {
			return fmt.Errorf("%w: negative power at step %d (%s)", ErrAlignment, i, st.Start.Format(time.RFC3339))
		}
		if i == 0 {
			continue
		}
		gap := st.Start.Sub(s.Steps[i-1].Start).Hours()
		if math.Abs(gap-s.DtHours) > tol {
			return fmt.Errorf("%w: gap of %v h between steps %d and %d, want %v h",
				ErrAlignment, gap, i-1, i, s.DtHours)
		}
	}
	return nil
}

// Hours returns the total duration covered by the series.
func (s Series) Hours() float64 {
	return float64(len(s.Steps)) * s.DtHours
}

// WithEnergyRates returns a copy of the series with each step's EnergyRate
// stamped from the tariff's time-of-use table. The receiver is not modified.
func (s Series) WithEnergyRates(t Tariff) Series {
	out := Series{Steps: make([]Timestep, len(s.Steps)), DtHours: s.DtHours}
	for i, st := range s.Steps {
		st.EnergyRate = t.EnergyRateAt(st.Start)
		out.Steps[i] = st
	}
	return out
}

// Window is the view of consecutive timesteps handed to a single solve.
// Billing marks windows that cover exactly one billing month, which makes
// the optimizer carry the monthly peak-import variable.
type Window struct {
	Steps   []Timestep
	DtHours float64
	Billing bool
}

// Hours returns the duration covered by the window.
func (w Window) Hours() float64 {
	return float64(len(w.Steps)) * w.DtHours
}

// Slice returns the window covering steps [from, to) of the series.
func (s Series) Slice(from, to int, billing bool) Window {
	return Window{Steps: s.Steps[from:to], DtHours: s.DtHours, Billing: billing}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
