package queuelaw

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sync"
)

// SweepConfig controls Sweep execution.
type SweepConfig struct {
	Workers int // Concurrent evaluations (0 = GOMAXPROCS)
}

// DefaultSweepConfig returns sensible defaults.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{Workers: runtime.GOMAXPROCS(0)}
}

// SweepPoint is the evaluation of spec with every class rate multiplied by
// Factor.
type SweepPoint struct {
	Factor float64
	Rho    float64
	Result Result
	Err    error // *InstabilityError for overloaded points
}

// Stable reports whether the point has a finite steady state.
func (p SweepPoint) Stable() bool { return p.Err == nil }

// Sweep scales every class rate of spec by each factor and evaluates the
// scaled systems concurrently. Points come back in factor order.
//
// An overloaded point is not a failure: its Err holds the *InstabilityError
// and the sweep continues. Shape errors of spec, invalid factors and a
// variant that cannot take spec are returned before any work starts. When ctx
// is cancelled, Sweep stops handing out work and returns ctx.Err() together
// with the points finished so far, still in factor order.
func Sweep(ctx context.Context, spec PrioritySpec, d Discipline, factors []float64, cfg SweepConfig) ([]SweepPoint, error) {
	if err := spec.validateShape(); err != nil {
		return nil, err
	}
	if _, err := Select(d, spec.Servers, len(spec.Rates)); err != nil {
		return nil, err
	}
	for _, f := range factors {
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return nil, invalid("factor", "load factor must be finite and ≥ 0, got %g", f)
		}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, len(factors))

	points := make([]SweepPoint, len(factors))
	done := make([]bool, len(factors))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				points[i] = evaluatePoint(spec, d, factors[i])
				done[i] = true
			}
		}()
	}

	var err error
feed:
	for i := range factors {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		finished := points[:0]
		for i, p := range points {
			if done[i] {
				finished = append(finished, p)
			}
		}
		return finished, err
	}
	return points, nil
}

func evaluatePoint(spec PrioritySpec, d Discipline, factor float64) SweepPoint {
	scaled := spec
	scaled.Lambda = spec.Lambda * factor
	scaled.Rates = make([]float64, len(spec.Rates))
	for i, r := range spec.Rates {
		scaled.Rates[i] = r * factor
	}

	p := SweepPoint{Factor: factor, Rho: scaled.Rho()}
	res, err := Solve(scaled, d)
	if err != nil {
		p.Err = err
		return p
	}
	p.Result = res
	return p
}

// KneeFactor returns the first swept factor whose utilization reaches or
// exceeds rho, or false when no point does. Points must be in factor order,
// as returned by Sweep.
func KneeFactor(points []SweepPoint, rho float64) (float64, bool) {
	for _, p := range points {
		if p.Rho >= rho {
			return p.Factor, true
		}
	}
	return 0, false
}

// Unstable reports whether err marks an overloaded sweep point.
func Unstable(err error) bool {
	return errors.Is(err, ErrUnstable)
}
