// Package econ turns dispatch plans into investment metrics: net present
// value, internal rate of return, payback time and the break-even storage
// price.
package econ

import (
	"math"

	"github.com/aduval/bessplan/core/horizon"
	"github.com/aduval/bessplan/core/model"
)

const (
	irrStart         = 0.1
	irrMaxIterations = 64
	irrFloor         = -0.999
)

// Result carries every metric of one evaluation. IRR is only meaningful
// when IRRValid is set; a failed root find is never reported as a rate.
type Result struct {
	NPV             float64
	IRR             float64
	IRRValid        bool
	PaybackYears    float64 // +Inf when the investment never pays back
	BreakEvenPerKWh float64
	Investment      float64
	AnnualSavings   float64
	AnnualCashFlows []float64
}

// PresentValue discounts the cash flows to today. flows[0] is year one.
func PresentValue(rate float64, flows []float64) float64 {
	var pv float64
	d := 1.0
	for _, cf := range flows {
		d *= 1 + rate
		pv += cf / d
	}
	return pv
}

// NPV is the present value of the flows minus the upfront investment.
func NPV(rate, investment float64, flows []float64) float64 {
	return PresentValue(rate, flows) - investment
}

// IRR finds the rate where the NPV vanishes by Newton-Raphson from 0.1.
// The second return is false when the iteration diverges, the derivative
// vanishes or the rate falls to the -100% floor; such streams have no
// meaningful rate of return.
func IRR(investment float64, flows []float64) (float64, bool) {
	if investment <= 0 {
		return 0, false
	}
	tol := 1e-9 * math.Max(1, investment)
	r := irrStart
	for i := 0; i < irrMaxIterations; i++ {
		f, df := npvWithDerivative(r, investment, flows)
		if math.Abs(f) < tol {
			return r, true
		}
		if df == 0 || math.IsNaN(df) || math.IsInf(df, 0) {
			return 0, false
		}
		r -= f / df
		if r <= irrFloor || math.IsNaN(r) || math.IsInf(r, 0) {
			return 0, false
		}
	}
	return 0, false
}

func npvWithDerivative(rate, investment float64, flows []float64) (f, df float64) {
	f = -investment
	for y, cf := range flows {
		d := math.Pow(1+rate, float64(y+1))
		f += cf / d
		df -= float64(y+1) * cf / (d * (1 + rate))
	}
	return f, df
}

// Payback returns the undiscounted time in years until the cumulative cash
// flows reach the investment, interpolating linearly inside the crossing
// year, or +Inf when they never do.
func Payback(investment float64, flows []float64) float64 {
	if investment <= 0 {
		return 0
	}
	var cum float64
	for y, cf := range flows {
		prev := cum
		cum += cf
		if cum >= investment {
			return float64(y) + (investment-prev)/cf
		}
	}
	return math.Inf(1)
}

// BreakEvenPerKWh returns the storage price at which the project NPV is
// exactly zero: the present value of the savings spread over the capacity.
func BreakEvenPerKWh(rate float64, flows []float64, capacityKWh float64) float64 {
	if capacityKWh <= 0 {
		return 0
	}
	return PresentValue(rate, flows) / capacityKWh
}

// Evaluator prices a battery project from a dispatch plan and its
// no-battery baseline over the same series.
type Evaluator struct {
	DiscountRate  float64
	LifetimeYears int
	// AnnualScale maps the series' cost delta to a full year: 1 when the
	// series covers exactly one year, the compressor's factor otherwise.
	AnnualScale float64
}

const defaultLifetimeYears = 10

// Evaluate assembles the flat annual cash-flow stream from the cost saved
// by the battery plan and computes all metrics against the purchase cost.
func (e Evaluator) Evaluate(battery model.BatterySpecification, plan, baseline horizon.Plan) Result {
	scale := e.AnnualScale
	if scale <= 0 {
		scale = 1
	}
	years := e.LifetimeYears
	if years <= 0 {
		years = defaultLifetimeYears
	}

	savings := (baseline.TotalCost - plan.TotalCost) * scale
	flows := make([]float64, years)
	for i := range flows {
		flows[i] = savings
	}
	investment := battery.CostPerKWh * battery.CapacityKWh

	irr, ok := IRR(investment, flows)
	return Result{
		NPV:             NPV(e.DiscountRate, investment, flows),
		IRR:             irr,
		IRRValid:        ok,
		PaybackYears:    Payback(investment, flows),
		BreakEvenPerKWh: BreakEvenPerKWh(e.DiscountRate, flows, battery.CapacityKWh),
		Investment:      investment,
		AnnualSavings:   savings,
		AnnualCashFlows: flows,
	}
}
