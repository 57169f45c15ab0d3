package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/aduval/bessplan/core/metrics"
)

func TestInfluxSink_RecordWindow(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ev := coremetrics.WindowEvent{
		WindowIndex:   2,
		Start:         start,
		Steps:         24,
		Billing:       true,
		Objective:     12.5,
		EnergyCost:    10,
		DemandCharge:  2.5,
		PeakImportKW:  30,
		ImportKWh:     120,
		ExportKWh:     15,
		ThroughputKWh: 40,
		SolveDuration: 250 * time.Millisecond,
	}

	if err := sink.RecordWindow(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("window_solved").
		AddTag("billing", "true").
		AddTag("component", "horizon").
		AddField("window_index", 2).
		AddField("steps", 24).
		AddField("objective", 12.5).
		AddField("energy_cost", 10.0).
		AddField("demand_charge", 2.5).
		AddField("peak_import_kw", 30.0).
		AddField("import_kwh", 120.0).
		AddField("export_kwh", 15.0).
		AddField("throughput_kwh", 40.0).
		AddField("solve_ms", 250.0).
		SetTime(start)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}

func TestInfluxSink_RecordMonth(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, strings.TrimSpace(string(b)))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	month := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ev := coremetrics.MonthEvent{Month: month, PeakKW: 42, BracketIndex: 1, Charge: 420}
	if err := sink.RecordMonth(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("month_settled").
		AddTag("month", "2024-06").
		AddTag("component", "horizon").
		AddField("peak_kw", 42.0).
		AddField("bracket_index", 1).
		AddField("charge", 420.0).
		SetTime(month)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(bodies) != 1 || bodies[0] != exp {
		t.Errorf("bodies: %#v", bodies)
	}
}

func TestInfluxSink_RecordCandidate(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, strings.TrimSpace(string(b)))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	ev := coremetrics.CandidateEvent{Generation: 4, CapacityKWh: 60, PowerKW: 25, Score: 1.25, Feasible: true, Time: now}
	if err := sink.RecordCandidate(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("sizing_candidate").
		AddTag("feasible", "true").
		AddTag("component", "sizing").
		AddField("generation", 4).
		AddField("capacity_kwh", 60.0).
		AddField("power_kw", 25.0).
		AddField("score", 1.25).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(bodies) != 1 || bodies[0] != exp {
		t.Errorf("bodies: %#v", bodies)
	}
}
