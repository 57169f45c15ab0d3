// Package sizing searches the (capacity, power) plane for the battery with
// the best objective score, typically project NPV. The search is a small
// differential evolution: deterministic for a fixed seed, parallel only in
// candidate evaluation, and tolerant of candidates whose plans fail.
package sizing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aduval/bessplan/core/model"
)

// ErrInvalidDimension marks candidates rejected before any solve because
// their storage-duration ratio or dimensions fall outside the admissible
// range.
var ErrInvalidDimension = errors.New("invalid battery dimension")

// ErrNoFeasible is returned when not a single candidate produced a score.
var ErrNoFeasible = errors.New("no feasible candidate")

// Objective scores one fully specified battery. Higher is better.
type Objective func(ctx context.Context, battery model.BatterySpecification) (float64, error)

// Bounds is the admissible candidate box. The ratio bounds screen candidates
// by storage duration (capacity over power, in hours) before any solve.
type Bounds struct {
	MinCapacityKWh float64
	MaxCapacityKWh float64
	MinPowerKW     float64
	MaxPowerKW     float64
	MinHoursRatio  float64 // 0 = no lower screening
	MaxHoursRatio  float64 // 0 = no upper screening
}

// Validate rejects empty or inverted boxes.
func (b Bounds) Validate() error {
	if b.MinCapacityKWh <= 0 || b.MaxCapacityKWh < b.MinCapacityKWh {
		return fmt.Errorf("capacity bounds [%v, %v] kWh", b.MinCapacityKWh, b.MaxCapacityKWh)
	}
	if b.MinPowerKW <= 0 || b.MaxPowerKW < b.MinPowerKW {
		return fmt.Errorf("power bounds [%v, %v] kW", b.MinPowerKW, b.MaxPowerKW)
	}
	if b.MinHoursRatio < 0 || b.MaxHoursRatio < 0 {
		return fmt.Errorf("negative ratio bound")
	}
	if b.MaxHoursRatio > 0 && b.MinHoursRatio > b.MaxHoursRatio {
		return fmt.Errorf("ratio bounds [%v, %v] h", b.MinHoursRatio, b.MaxHoursRatio)
	}
	return nil
}

// admits reports whether a candidate passes the pre-solve screening.
func (b Bounds) admits(capacityKWh, powerKW float64) bool {
	ratio := capacityKWh / powerKW
	if b.MinHoursRatio > 0 && ratio < b.MinHoursRatio {
		return false
	}
	if b.MaxHoursRatio > 0 && ratio > b.MaxHoursRatio {
		return false
	}
	return true
}

// Config tunes the evolution. The zero value is usable.
type Config struct {
	Population  int     // candidates per generation, minimum 4
	Generations int     // evolution budget
	Weight      float64 // differential weight F
	Crossover   float64 // crossover probability CR
	Seed        uint64  // same seed, same result
	Workers     int     // parallel evaluations, default GOMAXPROCS
}

const (
	defaultPopulation  = 16
	defaultGenerations = 20
	defaultWeight      = 0.7
	defaultCrossover   = 0.9
	minPopulation      = 4
)

func (c Config) withDefaults() Config {
	if c.Population <= 0 {
		c.Population = defaultPopulation
	}
	if c.Population < minPopulation {
		c.Population = minPopulation
	}
	if c.Generations <= 0 {
		c.Generations = defaultGenerations
	}
	if c.Weight <= 0 {
		c.Weight = defaultWeight
	}
	if c.Crossover <= 0 || c.Crossover > 1 {
		c.Crossover = defaultCrossover
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// Candidate is one scored point of the search space.
type Candidate struct {
	CapacityKWh float64
	PowerKW     float64
	Score       float64
}

// Progress is reported after every generation, from the sequential master
// loop. Generation counts completed trial generations, starting at 1.
type Progress struct {
	Generation  int
	Best        Candidate
	Evaluations int
	Failures    int
	Rejected    int
}

// Evaluation reports one scored candidate, from the sequential master loop.
// Generation 0 is the seed population. Rejected candidates are not reported;
// failed objectives arrive with Feasible false and a -Inf score.
type Evaluation struct {
	Generation int
	Candidate  Candidate
	Feasible   bool
}

// Result is the outcome of a search run.
type Result struct {
	Best        Candidate
	Generations int // generations completed
	Evaluations int // objective calls
	Failures    int // objective errors, penalized
	Rejected    int // screened out before solving
}

// Search owns one sizing run's inputs. Construct with New.
type Search struct {
	objective Objective
	template  model.BatterySpecification
	bounds    Bounds
	cfg       Config

	// OnProgress, when set, is called after each generation from the
	// master loop.
	OnProgress func(Progress)
	// OnEvaluation, when set, is called once per scored candidate, also
	// from the master loop.
	OnEvaluation func(Evaluation)
}

// New builds a search around an objective. The template provides every
// battery field except capacity and power, which the search owns.
func New(objective Objective, template model.BatterySpecification, bounds Bounds, cfg Config) (*Search, error) {
	if objective == nil {
		return nil, fmt.Errorf("nil objective")
	}
	if err := bounds.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDimension, err)
	}
	return &Search{objective: objective, template: template, bounds: bounds, cfg: cfg.withDefaults()}, nil
}

type vec struct{ capacity, power float64 }

type member struct {
	vec
	score float64
}

type evalOutcome struct {
	score    float64
	failed   bool
	rejected bool
}

// Run evolves the population. Cancelling the context stops the run after
// the current generation; the best candidate found so far is still
// returned, together with the context error.
func (s *Search) Run(ctx context.Context) (Result, error) {
	rng := rand.New(rand.NewPCG(s.cfg.Seed, 0x9e3779b97f4a7c15))
	capDist := distuv.Uniform{Min: s.bounds.MinCapacityKWh, Max: s.bounds.MaxCapacityKWh, Src: rng}
	powDist := distuv.Uniform{Min: s.bounds.MinPowerKW, Max: s.bounds.MaxPowerKW, Src: rng}

	res := Result{Best: Candidate{Score: math.Inf(-1)}}

	pop := make([]member, s.cfg.Population)
	initial := make([]vec, len(pop))
	for i := range initial {
		initial[i] = vec{capacity: capDist.Rand(), power: powDist.Rand()}
	}
	outcomes := s.evaluateAll(ctx, initial)
	for i, out := range outcomes {
		pop[i] = member{vec: initial[i], score: out.score}
		s.account(&res, initial[i], out)
		s.reportEvaluation(0, initial[i], out)
	}

	for gen := 0; gen < s.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		// All randomness is drawn here, in order, so worker scheduling
		// can never change the outcome.
		trials := make([]vec, len(pop))
		for i := range pop {
			a, b, c := s.parents(rng, i)
			trials[i] = s.crossover(rng, pop[i].vec, s.mutate(pop[a].vec, pop[b].vec, pop[c].vec))
		}

		outcomes = s.evaluateAll(ctx, trials)
		for i, out := range outcomes {
			s.account(&res, trials[i], out)
			s.reportEvaluation(gen+1, trials[i], out)
			if out.score > pop[i].score {
				pop[i] = member{vec: trials[i], score: out.score}
			}
		}
		res.Generations = gen + 1

		if s.OnProgress != nil {
			s.OnProgress(Progress{
				Generation:  gen + 1,
				Best:        res.Best,
				Evaluations: res.Evaluations,
				Failures:    res.Failures,
				Rejected:    res.Rejected,
			})
		}
	}

	if math.IsInf(res.Best.Score, -1) {
		return res, ErrNoFeasible
	}
	return res, nil
}

// reportEvaluation forwards one scored candidate to the hook.
func (s *Search) reportEvaluation(gen int, v vec, out evalOutcome) {
	if s.OnEvaluation == nil || out.rejected {
		return
	}
	s.OnEvaluation(Evaluation{
		Generation: gen,
		Candidate:  Candidate{CapacityKWh: v.capacity, PowerKW: v.power, Score: out.score},
		Feasible:   !out.failed,
	})
}

// account folds one evaluation into the running totals and the incumbent.
func (s *Search) account(res *Result, v vec, out evalOutcome) {
	switch {
	case out.rejected:
		res.Rejected++
	case out.failed:
		res.Evaluations++
		res.Failures++
	default:
		res.Evaluations++
		if out.score > res.Best.Score {
			res.Best = Candidate{CapacityKWh: v.capacity, PowerKW: v.power, Score: out.score}
		}
	}
}

// parents picks three distinct population indices, all different from i.
func (s *Search) parents(rng *rand.Rand, i int) (int, int, int) {
	pick := func(exclude ...int) int {
		for {
			j := rng.IntN(s.cfg.Population)
			ok := j != i
			for _, e := range exclude {
				if j == e {
					ok = false
				}
			}
			if ok {
				return j
			}
		}
	}
	a := pick()
	b := pick(a)
	c := pick(a, b)
	return a, b, c
}

// mutate forms the donor a + F*(b-c), clamped into the bounds box.
func (s *Search) mutate(a, b, c vec) vec {
	return vec{
		capacity: clamp(a.capacity+s.cfg.Weight*(b.capacity-c.capacity), s.bounds.MinCapacityKWh, s.bounds.MaxCapacityKWh),
		power:    clamp(a.power+s.cfg.Weight*(b.power-c.power), s.bounds.MinPowerKW, s.bounds.MaxPowerKW),
	}
}

// crossover mixes target and donor per dimension, forcing at least one donor
// dimension through.
func (s *Search) crossover(rng *rand.Rand, target, donor vec) vec {
	out := target
	forced := rng.IntN(2)
	if rng.Float64() < s.cfg.Crossover || forced == 0 {
		out.capacity = donor.capacity
	}
	if rng.Float64() < s.cfg.Crossover || forced == 1 {
		out.power = donor.power
	}
	return out
}

// evaluateAll scores candidates on a fixed worker pool. Results land in a
// slice by index, so completion order is irrelevant.
func (s *Search) evaluateAll(ctx context.Context, cands []vec) []evalOutcome {
	out := make([]evalOutcome, len(cands))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = s.evaluate(ctx, cands[i])
			}
		}()
	}
	for i := range cands {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}

// evaluate scores a single candidate. Screened and invalid candidates never
// reach the objective; failed objectives are penalized, not retried.
func (s *Search) evaluate(ctx context.Context, v vec) evalOutcome {
	penalty := evalOutcome{score: math.Inf(-1)}
	if !s.bounds.admits(v.capacity, v.power) {
		penalty.rejected = true
		return penalty
	}
	battery := s.template
	battery.CapacityKWh = v.capacity
	battery.PowerKW = v.power
	if err := battery.Validate(); err != nil {
		penalty.rejected = true
		return penalty
	}
	score, err := s.objective(ctx, battery)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		penalty.failed = true
		return penalty
	}
	return evalOutcome{score: score}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
