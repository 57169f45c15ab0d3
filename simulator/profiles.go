// Package simulator generates synthetic production/load/price series for
// trying out planner configurations before real meter data is available.
// Profiles are deterministic for a fixed seed.
package simulator

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aduval/bessplan/core/model"
)

// Generate builds a synthetic series from the configured shapes.
func Generate(cfg Config) (model.Series, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return model.Series{}, err
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, 0x51b9ac39ff2b6c21))
	jitter := distuv.Uniform{Min: -cfg.Noise, Max: cfg.Noise, Src: rng}

	dt := time.Duration(cfg.StepMinutes) * time.Minute
	n := cfg.Days * (1440 / cfg.StepMinutes)
	steps := make([]model.Timestep, n)
	for i := range steps {
		start := cfg.Start.Add(time.Duration(i) * dt)
		h := float64(start.Hour()) + float64(start.Minute())/60

		load := cfg.LoadBaseKW + cfg.LoadPeakKW*(gauss(h, 8.5, 1.5)+gauss(h, 19, 2))
		pv := cfg.PVPeakKW * halfWave(h)
		price := cfg.PriceBase +
			cfg.PriceSwing*(gauss(h, 8, 1.5)+gauss(h, 19.5, 1.5)) -
			0.6*cfg.PriceSwing*gauss(h, 13.5, 2)

		if cfg.Noise > 0 {
			load *= 1 + jitter.Rand()
			pv *= 1 + jitter.Rand()
			price *= 1 + jitter.Rand()
		}

		steps[i] = model.Timestep{
			Start:        start,
			ProductionKW: pv,
			LoadKW:       load,
			Price:        price,
		}
	}

	s := model.Series{Steps: steps, DtHours: dt.Hours()}
	if err := s.Validate(); err != nil {
		return model.Series{}, err
	}
	return s, nil
}

// halfWave is the PV shape: a sine half-wave between 06:00 and 18:00, zero
// at night.
func halfWave(h float64) float64 {
	if h < 6 || h > 18 {
		return 0
	}
	return math.Sin(math.Pi * (h - 6) / 12)
}

func gauss(x, mu, sigma float64) float64 {
	d := (x - mu) / sigma
	return math.Exp(-0.5 * d * d)
}
