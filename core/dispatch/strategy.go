package dispatch

const (
	defaultSimplexTol        = 1e-7
	defaultBracketIterations = 4
)

// Strategy carries the tunables of one optimizer instance. Callers pass it
// explicitly; there is no package-level configuration.
type Strategy struct {
	// DegradationCostPerPercent monetizes capacity loss in the objective,
	// currency per percent. Zero disables the wear term.
	DegradationCostPerPercent float64
	// SimplexTol is handed to the simplex solver. Zero selects the default.
	SimplexTol float64
	// MaxBracketIterations caps the demand-bracket fixed-point loop on
	// billing windows. Zero selects the default.
	MaxBracketIterations int
}

// withDefaults fills unset fields so the zero Strategy is usable.
func (s Strategy) withDefaults() Strategy {
	if s.SimplexTol <= 0 {
		s.SimplexTol = defaultSimplexTol
	}
	if s.MaxBracketIterations <= 0 {
		s.MaxBracketIterations = defaultBracketIterations
	}
	return s
}
