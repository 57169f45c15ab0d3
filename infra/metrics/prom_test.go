package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/aduval/bessplan/core/metrics"
)

func TestPromSink_RecordWindow(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink, ok := sinkIf.(*PromSink)
	if !ok {
		t.Fatalf("expected PromSink")
	}
	ev := coremetrics.WindowEvent{
		WindowIndex:   0,
		Start:         time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Steps:         24,
		Billing:       true,
		Objective:     12.5,
		SolveDuration: 150 * time.Millisecond,
	}
	if err := sink.RecordWindow(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}

	expected := `
# HELP planner_windows_total Total number of solved dispatch windows
# TYPE planner_windows_total counter
planner_windows_total{billing="true"} 1
`
	if err := testutil.CollectAndCompare(sink.windows, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}

	if c := testutil.CollectAndCount(sink.solveTime); c == 0 {
		t.Errorf("solve duration not recorded")
	}

	// settle a month and verify the peak gauge
	if err := sink.RecordMonth(coremetrics.MonthEvent{
		Month:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		PeakKW: 42,
		Charge: 420,
	}); err != nil {
		t.Fatalf("month error: %v", err)
	}
	expectedPeak := `
# HELP planner_month_peak_kw Settled peak import power per billing month
# TYPE planner_month_peak_kw gauge
planner_month_peak_kw{month="2024-06"} 42
`
	if err := testutil.CollectAndCompare(sink.monthPeak, strings.NewReader(expectedPeak)); err != nil {
		t.Errorf("unexpected peak metric: %v", err)
	}
}

func TestPromSink_SizingMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink := sinkIf.(*PromSink)

	if err := sink.RecordCandidate(coremetrics.CandidateEvent{CapacityKWh: 60, PowerKW: 25, Score: 1.2, Feasible: true}); err != nil {
		t.Fatalf("candidate: %v", err)
	}
	if err := sink.RecordCandidate(coremetrics.CandidateEvent{CapacityKWh: 5, PowerKW: 90, Feasible: false}); err != nil {
		t.Fatalf("candidate: %v", err)
	}
	expected := `
# HELP sizing_candidates_total Total number of evaluated sizing candidates
# TYPE sizing_candidates_total counter
sizing_candidates_total{feasible="false"} 1
sizing_candidates_total{feasible="true"} 1
`
	if err := testutil.CollectAndCompare(sink.candidates, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected candidates: %v", err)
	}

	if err := sink.RecordSearchProgress(coremetrics.SearchEvent{Generation: 3, BestScore: 1.2}); err != nil {
		t.Fatalf("progress: %v", err)
	}
	expectedBest := `
# HELP sizing_best_score Best objective score seen by the sizing search
# TYPE sizing_best_score gauge
sizing_best_score 1.2
`
	if err := testutil.CollectAndCompare(sink.bestScore, strings.NewReader(expectedBest)); err != nil {
		t.Errorf("unexpected best score: %v", err)
	}
}

func TestPromSink_ReregistrationReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("second: %v", err)
	}
}
