// Package compress shrinks a long input series into representative days so
// sizing searches solve far smaller programs. Each calendar month
// contributes its hour-by-hour average day and optionally its highest-load
// day; costs computed on the reduced series are mapped back through the
// reported scale factor.
//
// The reduction keeps energy-cost structure, not billing-month structure:
// the reduced series carries relabeled consecutive timestamps, so demand
// charges settle on the reduced timeline. Plans whose value hinges on exact
// monthly peaks should run on the full series.
package compress

import (
	"fmt"
	"math"
	"time"

	"github.com/aduval/bessplan/core/model"
)

// Config selects what represents a month.
type Config struct {
	// IncludePeakDays appends each month's highest-load day after its
	// average day, preserving the spikes a mean flattens away.
	IncludePeakDays bool
}

// Compressed is a reduced series plus the factor mapping its costs back to
// the span of the input. For a one-year input the factor annualizes.
type Compressed struct {
	Series      model.Series
	AnnualScale float64
}

// Reduce builds the representative series. The input must be valid and
// cover at least one whole day; a partial trailing day is dropped.
func Reduce(s model.Series, cfg Config) (Compressed, error) {
	if err := s.Validate(); err != nil {
		return Compressed{}, err
	}
	perDay := int(math.Round(24 / s.DtHours))
	if perDay < 1 || math.Abs(float64(perDay)*s.DtHours-24) > 1e-9 {
		return Compressed{}, fmt.Errorf("%w: step of %v h does not tile a day", model.ErrAlignment, s.DtHours)
	}
	days := len(s.Steps) / perDay
	if days == 0 {
		return Compressed{}, fmt.Errorf("%w: series shorter than one day", model.ErrAlignment)
	}

	// Bucket whole days by the calendar month they start in, keeping the
	// encounter order of months.
	type monthDays struct {
		month time.Time
		days  [][]model.Timestep
	}
	var months []monthDays
	byMonth := make(map[time.Time]int)
	for d := 0; d < days; d++ {
		day := s.Steps[d*perDay : (d+1)*perDay]
		m := model.MonthOf(day[0].Start)
		idx, ok := byMonth[m]
		if !ok {
			idx = len(months)
			byMonth[m] = idx
			months = append(months, monthDays{month: m})
		}
		months[idx].days = append(months[idx].days, day)
	}

	var reduced []model.Timestep
	for _, m := range months {
		reduced = append(reduced, averageDay(m.days)...)
		if cfg.IncludePeakDays && len(m.days) > 1 {
			reduced = append(reduced, peakDay(m.days)...)
		}
	}

	// Relabel onto a contiguous timeline anchored at the input's start.
	base := s.Steps[0].Start
	out := model.Series{Steps: make([]model.Timestep, len(reduced)), DtHours: s.DtHours}
	for i, st := range reduced {
		st.Start = base.Add(time.Duration(float64(i) * s.DtHours * float64(time.Hour)))
		out.Steps[i] = st
	}

	return Compressed{
		Series:      out,
		AnnualScale: s.Hours() / out.Hours(),
	}, nil
}

// averageDay returns the element-wise mean of the given days.
func averageDay(days [][]model.Timestep) []model.Timestep {
	perDay := len(days[0])
	out := make([]model.Timestep, perDay)
	inv := 1 / float64(len(days))
	for i := 0; i < perDay; i++ {
		avg := model.Timestep{Start: days[0][i].Start}
		for _, day := range days {
			avg.ProductionKW += day[i].ProductionKW
			avg.LoadKW += day[i].LoadKW
			avg.Price += day[i].Price
			avg.EnergyRate += day[i].EnergyRate
		}
		avg.ProductionKW *= inv
		avg.LoadKW *= inv
		avg.Price *= inv
		avg.EnergyRate *= inv
		out[i] = avg
	}
	return out
}

// peakDay returns the day holding the month's highest load, the first such
// day on ties.
func peakDay(days [][]model.Timestep) []model.Timestep {
	best, bestLoad := 0, -1.0
	for d, day := range days {
		for _, st := range day {
			if st.LoadKW > bestLoad {
				best, bestLoad = d, st.LoadKW
			}
		}
	}
	return days[best]
}
