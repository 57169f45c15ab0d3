package dispatch

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/aduval/bessplan/core/model"
)

// varsPerStep is the layout of the decision block for one timestep:
// charge, discharge, import, export, curtail (kW) and the shifted state of
// energy soe' = soe - minEnergy (kWh). All are naturally non-negative, so
// the program is emitted in simplex standard form directly and every bound
// becomes one slack row; lp.Convert is avoided because it doubles the
// variable count for free variables this formulation does not have.
const varsPerStep = 6

const (
	offCharge = iota
	offDischarge
	offImport
	offExport
	offCurtail
	offSOE
)

// problem is one standard-form LP: min c'x subject to a*x = b, x >= 0.
type problem struct {
	c []float64
	a *mat.Dense
	b []float64

	n       int // timesteps
	hasPeak bool
	peakCol int
}

func col(t, off int) int { return t*varsPerStep + off }

// buildProblem assembles the window LP. When hasPeak is set the program
// carries one scalar peak variable priced at bracketRate and floored at
// peakFloor; otherwise peaks are settled outside the program.
func buildProblem(w model.Window, battery model.BatterySpecification, tariff model.Tariff,
	marginalWearPerKWh, initialSOE, peakFloor, bracketRate float64, hasPeak bool) problem {

	n := len(w.Steps)
	dt := w.DtHours
	minE := battery.MinEnergy()
	usable := battery.UsableEnergy()

	ineqs := 4 * n // charge, discharge, soe and curtail bounds
	if tariff.ExportLimitKW > 0 {
		ineqs += n
	}
	if tariff.ImportLimitKW > 0 {
		ineqs += n
	}
	if hasPeak {
		ineqs += n + 1 // import-below-peak rows plus the peak floor
	}

	peakVars := 0
	if hasPeak {
		peakVars = 1
	}
	rows := 2*n + ineqs
	cols := varsPerStep*n + peakVars + ineqs

	p := problem{
		c:       make([]float64, cols),
		a:       mat.NewDense(rows, cols, nil),
		b:       make([]float64, rows),
		n:       n,
		hasPeak: hasPeak,
		peakCol: varsPerStep * n,
	}

	// Energy balance: import - export + discharge - charge - curtail = load - production.
	row := 0
	for t, st := range w.Steps {
		p.a.Set(row, col(t, offImport), 1)
		p.a.Set(row, col(t, offExport), -1)
		p.a.Set(row, col(t, offDischarge), 1)
		p.a.Set(row, col(t, offCharge), -1)
		p.a.Set(row, col(t, offCurtail), -1)
		p.b[row] = st.LoadKW - st.ProductionKW
		row++
	}

	// State of energy recursion:
	// soe'[t] - soe'[t-1] - charge*etaIn*dt + discharge*dt/etaOut = 0,
	// anchored at t=0 with soe'[-1] = initialSOE - minEnergy.
	for t := 0; t < n; t++ {
		p.a.Set(row, col(t, offSOE), 1)
		p.a.Set(row, col(t, offCharge), -battery.ChargeEfficiency*dt)
		p.a.Set(row, col(t, offDischarge), dt/battery.DischargeEfficiency)
		if t > 0 {
			p.a.Set(row, col(t-1, offSOE), -1)
		} else {
			p.b[row] = initialSOE - minE
		}
		row++
	}

	slack := varsPerStep*n + peakVars
	bound := func(varCol int, limit float64) {
		p.a.Set(row, varCol, 1)
		p.a.Set(row, slack, 1)
		p.b[row] = limit
		row++
		slack++
	}

	for t := 0; t < n; t++ {
		bound(col(t, offCharge), battery.PowerKW)
	}
	for t := 0; t < n; t++ {
		bound(col(t, offDischarge), battery.PowerKW)
	}
	for t := 0; t < n; t++ {
		bound(col(t, offSOE), usable)
	}
	// Only own production can be spilled. This also keeps the program
	// bounded when prices go negative.
	for t, st := range w.Steps {
		bound(col(t, offCurtail), st.ProductionKW)
	}
	if tariff.ExportLimitKW > 0 {
		for t := 0; t < n; t++ {
			bound(col(t, offExport), tariff.ExportLimitKW)
		}
	}
	if tariff.ImportLimitKW > 0 {
		for t := 0; t < n; t++ {
			bound(col(t, offImport), tariff.ImportLimitKW)
		}
	}
	if hasPeak {
		for t := 0; t < n; t++ {
			p.a.Set(row, col(t, offImport), 1)
			p.a.Set(row, p.peakCol, -1)
			p.a.Set(row, slack, 1)
			row++
			slack++
		}
		// The billing peak never falls below what the month already saw.
		p.a.Set(row, p.peakCol, 1)
		p.a.Set(row, slack, -1)
		p.b[row] = peakFloor
		row++
		slack++
	}

	// Objective: imports pay spot plus the time-of-use adder, exports earn
	// spot, battery flow in either direction pays the marginal wear rate.
	for t, st := range w.Steps {
		p.c[col(t, offImport)] = (st.Price + st.EnergyRate) * dt
		p.c[col(t, offExport)] = -st.Price * dt
		p.c[col(t, offCharge)] = marginalWearPerKWh * dt
		p.c[col(t, offDischarge)] = marginalWearPerKWh * dt
	}
	if hasPeak {
		p.c[p.peakCol] = bracketRate
	}
	return p
}

// solveStandardLP runs the simplex method on an already standard-form
// program.
func solveStandardLP(c []float64, a *mat.Dense, b []float64, tol float64) ([]float64, error) {
	_, x, err := lp.Simplex(c, a, b, tol, nil)
	return x, err
}

// lpSolve points to the function used to solve the program. Tests override
// it to simulate solver failures.
var lpSolve = solveStandardLP
