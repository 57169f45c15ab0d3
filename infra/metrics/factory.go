package metrics

import (
	"github.com/aduval/bessplan/core/dispatch/logging"
	"github.com/aduval/bessplan/core/factory"
	coremetrics "github.com/aduval/bessplan/core/metrics"
	"github.com/aduval/bessplan/core/metrics/ledger"
	"github.com/aduval/bessplan/infra/kpi"
	"github.com/prometheus/client_golang/prometheus"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			Addr string `json:"addr"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		// Addr is read by the app to start the HTTP server; the sink itself doesn't use it.
		return NewPromSinkWithRegistry(coremetrics.Config{}, prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})

	_ = coremetrics.RegisterMetricsSink("ledger", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return NewLedgerSink(ledger.NewMemoryStore(), prometheus.DefaultRegisterer), nil
		}
		st, err := kpi.NewSQLiteStore(c.Path)
		if err != nil {
			return nil, err
		}
		return NewLedgerSink(st, prometheus.DefaultRegisterer), nil
	})

	_ = coremetrics.RegisterMetricsSink("jsonl", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			Path       string `json:"path"`
			MaxSizeMB  int    `json:"max_size_mb"`
			MaxBackups int    `json:"max_backups"`
			MaxAgeDays int    `json:"max_age_days"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.MaxSizeMB > 0 {
			st, err := logging.NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
			if err != nil {
				return nil, err
			}
			return NewJournalSink(st), nil
		}
		st, err := logging.NewJSONLStore(c.Path)
		if err != nil {
			return nil, err
		}
		return NewJournalSink(st), nil
	})

	_ = coremetrics.RegisterMetricsSink("sqlite", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		st, err := logging.NewSQLiteStore(c.Path)
		if err != nil {
			return nil, err
		}
		return NewJournalSink(st), nil
	})
}
