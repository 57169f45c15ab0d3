package metrics

import (
	"strconv"

	coremetrics "github.com/aduval/bessplan/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records planner events in Prometheus metrics.
type PromSink struct {
	windows    *prometheus.CounterVec
	solveTime  *prometheus.HistogramVec
	monthPeak  *prometheus.GaugeVec
	planCost   prometheus.Gauge
	candidates *prometheus.CounterVec
	bestScore  prometheus.Gauge
}

// NewPromSink registers planner metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using StartPromServer.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	windows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_windows_total",
		Help: "Total number of solved dispatch windows",
	}, []string{"billing"})
	solveTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_window_solve_seconds",
		Help:    "Time spent solving one dispatch window",
		Buckets: prometheus.DefBuckets,
	}, []string{"billing"})
	monthPeak := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "planner_month_peak_kw",
		Help: "Settled peak import power per billing month",
	}, []string{"month"})
	planCost := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "planner_plan_total_cost",
		Help: "Total cost of the last completed plan",
	})
	candidates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sizing_candidates_total",
		Help: "Total number of evaluated sizing candidates",
	}, []string{"feasible"})
	bestScore := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sizing_best_score",
		Help: "Best objective score seen by the sizing search",
	})

	if err := reg.Register(windows); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			windows = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(solveTime); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			solveTime = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(monthPeak); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			monthPeak = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(planCost); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			planCost = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(candidates); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			candidates = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(bestScore); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			bestScore = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		windows:    windows,
		solveTime:  solveTime,
		monthPeak:  monthPeak,
		planCost:   planCost,
		candidates: candidates,
		bestScore:  bestScore,
	}, nil
}

// RecordWindow counts the window and observes its solve duration.
func (s *PromSink) RecordWindow(ev coremetrics.WindowEvent) error {
	billing := strconv.FormatBool(ev.Billing)
	s.windows.WithLabelValues(billing).Inc()
	s.solveTime.WithLabelValues(billing).Observe(ev.SolveDuration.Seconds())
	return nil
}

// RecordMonth sets the peak gauge for the settled month.
func (s *PromSink) RecordMonth(ev coremetrics.MonthEvent) error {
	s.monthPeak.WithLabelValues(ev.Month.Format("2006-01")).Set(ev.PeakKW)
	return nil
}

// RecordPlan sets the total cost gauge for the completed plan.
func (s *PromSink) RecordPlan(ev coremetrics.PlanEvent) error {
	if s.planCost != nil {
		s.planCost.Set(ev.TotalCost)
	}
	return nil
}

// RecordCandidate counts one sizing evaluation.
func (s *PromSink) RecordCandidate(ev coremetrics.CandidateEvent) error {
	s.candidates.WithLabelValues(strconv.FormatBool(ev.Feasible)).Inc()
	return nil
}

// RecordSearchProgress tracks the best score seen so far.
func (s *PromSink) RecordSearchProgress(ev coremetrics.SearchEvent) error {
	if s.bestScore != nil {
		s.bestScore.Set(ev.BestScore)
	}
	return nil
}
