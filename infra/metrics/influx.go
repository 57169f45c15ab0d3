package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/aduval/bessplan/core/metrics"
	"github.com/aduval/bessplan/infra/logger"
)

// InfluxSink writes planner events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordWindow writes the solved window as a line protocol event.
func (s *InfluxSink) RecordWindow(ev coremetrics.WindowEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("window_solved").
		AddTag("billing", strconv.FormatBool(ev.Billing)).
		AddTag("component", "horizon").
		AddField("window_index", ev.WindowIndex).
		AddField("steps", ev.Steps).
		AddField("objective", round3(ev.Objective)).
		AddField("energy_cost", round3(ev.EnergyCost)).
		AddField("demand_charge", round3(ev.DemandCharge)).
		AddField("peak_import_kw", round3(ev.PeakImportKW)).
		AddField("import_kwh", round3(ev.ImportKWh)).
		AddField("export_kwh", round3(ev.ExportKWh)).
		AddField("throughput_kwh", round3(ev.ThroughputKWh)).
		AddField("solve_ms", round3(ev.SolveDuration.Seconds()*1000)).
		SetTime(ev.Start)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordMonth persists a settled billing month.
func (s *InfluxSink) RecordMonth(ev coremetrics.MonthEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("month_settled").
		AddTag("month", ev.Month.Format("2006-01")).
		AddTag("component", "horizon").
		AddField("peak_kw", round3(ev.PeakKW)).
		AddField("bracket_index", ev.BracketIndex).
		AddField("charge", round3(ev.Charge)).
		SetTime(ev.Month)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordPlan writes the summary of a completed plan.
func (s *InfluxSink) RecordPlan(ev coremetrics.PlanEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("plan_completed").
		AddTag("run_id", ev.RunID).
		AddTag("component", "horizon").
		AddField("windows", ev.Windows).
		AddField("steps", ev.Steps).
		AddField("energy_cost", round3(ev.EnergyCost)).
		AddField("demand_charges", round3(ev.DemandCharges)).
		AddField("degradation_cost", round3(ev.DegradationCost)).
		AddField("degradation_percent", round3(ev.DegradationPercent)).
		AddField("total_cost", round3(ev.TotalCost)).
		AddField("final_soe_kwh", round3(ev.FinalSOEKWh)).
		AddField("duration_s", round3(ev.Duration.Seconds())).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCandidate records one sizing evaluation.
func (s *InfluxSink) RecordCandidate(ev coremetrics.CandidateEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("sizing_candidate").
		AddTag("feasible", strconv.FormatBool(ev.Feasible)).
		AddTag("component", "sizing").
		AddField("generation", ev.Generation).
		AddField("capacity_kwh", round3(ev.CapacityKWh)).
		AddField("power_kw", round3(ev.PowerKW)).
		AddField("score", round3(ev.Score)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSearchProgress records the best candidate after a generation.
func (s *InfluxSink) RecordSearchProgress(ev coremetrics.SearchEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("sizing_progress").
		AddTag("component", "sizing").
		AddField("generation", ev.Generation).
		AddField("best_score", round3(ev.BestScore)).
		AddField("best_capacity_kwh", round3(ev.BestCapacityKWh)).
		AddField("best_power_kw", round3(ev.BestPowerKW)).
		AddField("evaluations", ev.Evaluations).
		AddField("failures", ev.Failures).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
