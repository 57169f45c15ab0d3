package events

// CandidateEvaluated is published for each sizing candidate scored by the search.
type CandidateEvaluated struct {
	Generation  int
	CapacityKWh float64
	PowerKW     float64
	Score       float64
	Feasible    bool
}

// GenerationFinished is emitted when the sizing search completes a generation.
type GenerationFinished struct {
	Generation      int
	BestScore       float64
	BestCapacityKWh float64
	BestPowerKW     float64
	Evaluations     int
	Failures        int
}
