package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordWindow forwards the window to all sinks, returning the first error encountered.
func (m *MultiSink) RecordWindow(ev WindowEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordWindow(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordMonth forwards month settlements to sinks that support them.
func (m *MultiSink) RecordMonth(ev MonthEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(MonthRecorder); ok {
			if err := rec.RecordMonth(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordPlan forwards plan summaries to sinks that support them.
func (m *MultiSink) RecordPlan(ev PlanEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(PlanRecorder); ok {
			if err := rec.RecordPlan(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordCandidate forwards candidate evaluations to sinks that support them.
func (m *MultiSink) RecordCandidate(ev CandidateEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(CandidateRecorder); ok {
			if err := rec.RecordCandidate(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSearchProgress forwards search progress to sinks that support it.
func (m *MultiSink) RecordSearchProgress(ev SearchEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SearchRecorder); ok {
			if err := rec.RecordSearchProgress(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// CloseSink releases resources held by a sink. Sinks without a Close method
// are ignored; a MultiSink closes its children.
func CloseSink(s MetricsSink) {
	switch c := s.(type) {
	case *MultiSink:
		for _, child := range c.Sinks {
			CloseSink(child)
		}
	case interface{ Close() error }:
		_ = c.Close()
	case interface{ Close() }:
		c.Close()
	}
}
