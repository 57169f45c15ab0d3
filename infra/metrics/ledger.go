package metrics

import (
	core "github.com/aduval/bessplan/core/metrics"
	ledger "github.com/aduval/bessplan/core/metrics/ledger"
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerSink aggregates solved windows into daily energy and cost KPIs.
type LedgerSink struct {
	store     ledger.Store
	importKWh *prometheus.GaugeVec
	ratio     *prometheus.GaugeVec
	cost      *prometheus.GaugeVec
}

// NewLedgerSink creates a sink with Prometheus gauges registered on reg.
func NewLedgerSink(store ledger.Store, reg prometheus.Registerer) *LedgerSink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	imp := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "site_imported_energy_kwh",
		Help: "Daily energy imported from the grid",
	}, []string{"day"})
	ratio := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "site_export_ratio",
		Help: "Daily ratio of exported to imported energy",
	}, []string{"day"})
	cost := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "site_energy_cost",
		Help: "Daily energy cost net of export revenue",
	}, []string{"day"})
	reg.MustRegister(imp, ratio, cost)
	return &LedgerSink{store: store, importKWh: imp, ratio: ratio, cost: cost}
}

// Store exposes the underlying ledger for summary queries.
func (s *LedgerSink) Store() ledger.Store { return s.store }

// Close releases the backing store when it holds resources.
func (s *LedgerSink) Close() error {
	if c, ok := s.store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// RecordWindow folds the window into the daily ledger and updates KPIs.
func (s *LedgerSink) RecordWindow(ev core.WindowEvent) error {
	rec := ledger.Record{
		Date:          ev.Start,
		ImportKWh:     ev.ImportKWh,
		ExportKWh:     ev.ExportKWh,
		ThroughputKWh: ev.ThroughputKWh,
		EnergyCost:    ev.EnergyCost,
	}
	if err := s.store.Add(rec); err != nil {
		return err
	}
	dayStr := ledger.Day(rec.Date).Format("2006-01-02")
	records, _ := s.store.Query(rec.Date, rec.Date)
	if len(records) > 0 {
		rr := records[0]
		s.importKWh.WithLabelValues(dayStr).Set(rr.ImportKWh)
		s.ratio.WithLabelValues(dayStr).Set(rr.ExportRatio())
		s.cost.WithLabelValues(dayStr).Set(rr.EnergyCost)
	}
	return nil
}
