// Package backfill rebuilds derived stores from recorded plans, so
// dashboards can be repopulated without re-running the solver.
package backfill

import (
	"fmt"
	"time"

	"github.com/aduval/bessplan/core/horizon"
	"github.com/aduval/bessplan/core/metrics/ledger"
	"github.com/aduval/bessplan/core/model"
)

// Ledger folds a committed plan into the daily ledger, pricing each step
// against the series the plan was solved on.
func Ledger(store ledger.Store, s model.Series, p horizon.Plan) error {
	steps := make(map[time.Time]model.Timestep, len(s.Steps))
	for _, st := range s.Steps {
		steps[st.Start] = st
	}
	for _, st := range p.Steps {
		src, ok := steps[st.Start]
		if !ok {
			return fmt.Errorf("plan step %s not covered by series", st.Start.Format(time.RFC3339))
		}
		imp := st.GridImportKW * p.DtHours
		exp := st.GridExportKW * p.DtHours
		rec := ledger.Record{
			Date:          st.Start,
			ImportKWh:     imp,
			ExportKWh:     exp,
			ThroughputKWh: (st.ChargeKW + st.DischargeKW) * p.DtHours,
			EnergyCost:    imp*(src.Price+src.EnergyRate) - exp*src.Price,
		}
		if err := store.Add(rec); err != nil {
			return err
		}
	}
	return nil
}
