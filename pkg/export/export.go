// Package export writes dispatch plans and economic results to CSV and JSON
// for downstream reporting tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/aduval/bessplan/core/econ"
	"github.com/aduval/bessplan/core/horizon"
	"github.com/aduval/bessplan/core/sizing"
)

// WriteScheduleCSV writes the committed dispatch, one row per timestep.
func WriteScheduleCSV(w io.Writer, plan horizon.Plan) error {
	cw := csv.NewWriter(w)
	header := []string{"timestamp", "charge_kw", "discharge_kw", "grid_import_kw",
		"grid_export_kw", "curtail_kw", "soe_kwh"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, st := range plan.Steps {
		rec := []string{
			st.Start.Format(time.RFC3339),
			f(st.ChargeKW),
			f(st.DischargeKW),
			f(st.GridImportKW),
			f(st.GridExportKW),
			f(st.CurtailKW),
			f(st.SOEKWh),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMonthsCSV writes the monthly demand-charge ledger.
func WriteMonthsCSV(w io.Writer, months []horizon.MonthCharge) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"month", "peak_kw", "bracket_index", "charge"}); err != nil {
		return err
	}
	for _, m := range months {
		rec := []string{
			m.Month.Format("2006-01"),
			f(m.PeakKW),
			strconv.Itoa(m.BracketIndex),
			f(m.Charge),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// PlanTotals is the cost breakdown of one plan as exported.
type PlanTotals struct {
	Steps              int     `json:"steps"`
	EnergyCost         float64 `json:"energy_cost"`
	DemandCharges      float64 `json:"demand_charges"`
	DegradationCost    float64 `json:"degradation_cost"`
	DegradationPercent float64 `json:"degradation_percent"`
	TotalCost          float64 `json:"total_cost"`
	FinalSOEKWh        float64 `json:"final_soe_kwh"`
}

// Totals extracts the exported breakdown from a plan.
func Totals(p horizon.Plan) PlanTotals {
	return PlanTotals{
		Steps:              len(p.Steps),
		EnergyCost:         p.EnergyCost,
		DemandCharges:      p.DemandCharges,
		DegradationCost:    p.DegradationCost,
		DegradationPercent: p.DegradationPercent,
		TotalCost:          p.TotalCost,
		FinalSOEKWh:        p.Final.SOEKWh,
	}
}

// Economics is econ.Result with JSON-safe encodings: an invalid IRR is null,
// a never-reached payback is null instead of +Inf.
type Economics struct {
	NPV             float64   `json:"npv"`
	IRR             *float64  `json:"irr"`
	PaybackYears    *float64  `json:"payback_years"`
	BreakEvenPerKWh float64   `json:"break_even_per_kwh"`
	Investment      float64   `json:"investment"`
	AnnualSavings   float64   `json:"annual_savings"`
	AnnualCashFlows []float64 `json:"annual_cash_flows"`
}

// FromResult converts an evaluation for export.
func FromResult(r econ.Result) Economics {
	out := Economics{
		NPV:             r.NPV,
		BreakEvenPerKWh: r.BreakEvenPerKWh,
		Investment:      r.Investment,
		AnnualSavings:   r.AnnualSavings,
		AnnualCashFlows: r.AnnualCashFlows,
	}
	if r.IRRValid {
		irr := r.IRR
		out.IRR = &irr
	}
	if !math.IsInf(r.PaybackYears, 1) {
		pb := r.PaybackYears
		out.PaybackYears = &pb
	}
	return out
}

// Summary is the JSON document of one plan run.
type Summary struct {
	RunID       string     `json:"run_id"`
	GeneratedAt time.Time  `json:"generated_at"`
	CapacityKWh float64    `json:"capacity_kwh"`
	PowerKW     float64    `json:"power_kw"`
	Plan        PlanTotals `json:"plan"`
	Baseline    PlanTotals `json:"baseline"`
	Economics   Economics  `json:"economics"`
}

// WriteSummaryJSON writes the run summary with indentation for readability.
func WriteSummaryJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// SizingSummary is the JSON document of one sizing search.
type SizingSummary struct {
	RunID       string     `json:"run_id"`
	GeneratedAt time.Time  `json:"generated_at"`
	CapacityKWh float64    `json:"capacity_kwh"`
	PowerKW     float64    `json:"power_kw"`
	Score       float64    `json:"score"`
	Generations int        `json:"generations"`
	Evaluations int        `json:"evaluations"`
	Failures    int        `json:"failures"`
	Rejected    int        `json:"rejected"`
	Economics   *Economics `json:"economics,omitempty"`
}

// FromSizing converts a search result for export.
func FromSizing(runID string, res sizing.Result) SizingSummary {
	return SizingSummary{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		CapacityKWh: res.Best.CapacityKWh,
		PowerKW:     res.Best.PowerKW,
		Score:       res.Best.Score,
		Generations: res.Generations,
		Evaluations: res.Evaluations,
		Failures:    res.Failures,
		Rejected:    res.Rejected,
	}
}

// WriteSizingJSON writes the sizing summary with indentation.
func WriteSizingJSON(w io.Writer, s SizingSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
