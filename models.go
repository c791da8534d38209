package queuelaw

import (
	"math"
)

// SingleMetrics is the result of a single-class model.
type SingleMetrics struct {
	Model       string
	Rho         float64 // Offered traffic intensity (see each model)
	Utilization float64 // Mean fraction of busy servers, (L - Lq)/s
	P0          float64 // Probability of an empty system
	L           float64
	Lq          float64
	W           float64
	Wq          float64
	LambdaEff   float64 // Arrival rate actually admitted

	pn   func(n int) float64
	tail func(t float64) (w, wq float64)
}

// Pn returns the probability of n customers in the system, or 0 when the
// model has no state distribution (M/G/1).
func (m SingleMetrics) Pn(n int) float64 {
	if m.pn == nil {
		return 0
	}
	return m.pn(n)
}

// HasDistribution reports whether Pn is defined for the model.
func (m SingleMetrics) HasDistribution() bool { return m.pn != nil }

// Tail returns P(W > t) and P(Wq > t). ok is false for models without a
// closed-form waiting-time distribution.
func (m SingleMetrics) Tail(t float64) (w, wq float64, ok bool) {
	if m.tail == nil || t < 0 {
		return 0, 0, false
	}
	w, wq = m.tail(t)
	return w, wq, true
}

func checkRates(lambda, mu float64) error {
	if math.IsNaN(mu) || mu <= 0 {
		return invalid("mu", "service rate must be > 0, got %g", mu)
	}
	if math.IsNaN(lambda) || lambda < 0 {
		return invalid("lambda", "arrival rate must be ≥ 0, got %g", lambda)
	}
	return nil
}

// MM1 solves the M/M/1 queue:
//
//	ρ = λ/μ,  L = ρ/(1-ρ),  Lq = ρ²/(1-ρ),  W = 1/(μ-λ),  Wq = ρ/(μ-λ)
func MM1(lambda, mu float64) (SingleMetrics, error) {
	m, err := MMS(lambda, mu, 1)
	if err != nil {
		return SingleMetrics{}, err
	}
	m.Model = "M/M/1"
	return m, nil
}

// MMS solves the M/M/s queue through the occupancy core and adds the
// waiting-time tails:
//
//	P(Wq > t) = C(s,a) · e^{-sμ(1-ρ)t}
//	P(W > t)  = e^{-μt} · [ 1 + C(s,a) · (1 - e^{-μt(s-1-a)}) / (s-1-a) ]
func MMS(lambda, mu float64, servers int) (SingleMetrics, error) {
	if err := checkRates(lambda, mu); err != nil {
		return SingleMetrics{}, err
	}
	occ, err := Occupancy(lambda, mu, servers)
	if err != nil {
		return SingleMetrics{}, err
	}

	s := float64(servers)
	c := occ.ProbWait()
	return SingleMetrics{
		Model:       "M/M/s",
		Rho:         occ.Rho,
		Utilization: occ.Rho,
		P0:          occ.P0,
		L:           occ.L(),
		Lq:          occ.Lq,
		W:           occ.W(),
		Wq:          occ.Wq(),
		LambdaEff:   lambda,
		pn:          occ.Pn,
		tail: func(t float64) (float64, float64) {
			pwq := c * math.Exp(-s*mu*(1-occ.Rho)*t)
			gap := s - 1 - occ.A
			var spread float64
			if math.Abs(gap) < 1e-12 {
				spread = mu * t
			} else {
				spread = (1 - math.Exp(-mu*t*gap)) / gap
			}
			return math.Exp(-mu*t) * (1 + c*spread), pwq
		},
	}, nil
}

// MM1K solves the M/M/1/K queue (at most K customers in the system).
func MM1K(lambda, mu float64, capacity int) (SingleMetrics, error) {
	m, err := MMSK(lambda, mu, 1, capacity)
	if err != nil {
		return SingleMetrics{}, err
	}
	m.Model = "M/M/1/K"
	return m, nil
}

// MMSK solves the M/M/s/K queue. Arrivals finding K customers are lost, so
// the model is stable for any load; W and Wq use the admitted rate
// λ_eff = λ·(1 - P_K).
func MMSK(lambda, mu float64, servers, capacity int) (SingleMetrics, error) {
	if err := checkRates(lambda, mu); err != nil {
		return SingleMetrics{}, err
	}
	if servers < 1 {
		return SingleMetrics{}, invalid("servers", "need at least one server, got %d", servers)
	}
	if capacity < servers {
		return SingleMetrics{}, invalid("k", "capacity %d must be ≥ servers %d", capacity, servers)
	}
	if capacity > MaxStates {
		return SingleMetrics{}, invalid("k", "capacity %d exceeds %d states", capacity, MaxStates)
	}

	m := solveBirthDeath(capacity, servers, mu, func(int) float64 { return lambda })
	m.Model = "M/M/s/K"
	m.Rho = lambda / (float64(servers) * mu)
	return m, nil
}

// MM1N solves the single-server finite-population (machine repair) model
// with N sources, each generating requests at rate λ while not in the system.
func MM1N(lambda, mu float64, population int) (SingleMetrics, error) {
	m, err := MMSN(lambda, mu, 1, population)
	if err != nil {
		return SingleMetrics{}, err
	}
	m.Model = "M/M/1/N"
	return m, nil
}

// MMSN solves the s-server finite-population model:
//
//	λₙ = (N - n)·λ,  μₙ = min(n, s)·μ,  λ_eff = λ·(N - L)
//
// Rho is reported as N·λ/(s·μ).
func MMSN(lambda, mu float64, servers, population int) (SingleMetrics, error) {
	if err := checkRates(lambda, mu); err != nil {
		return SingleMetrics{}, err
	}
	if servers < 1 {
		return SingleMetrics{}, invalid("servers", "need at least one server, got %d", servers)
	}
	if population < 1 {
		return SingleMetrics{}, invalid("population", "need at least one source, got %d", population)
	}
	if population > MaxStates {
		return SingleMetrics{}, invalid("population", "population %d exceeds %d states", population, MaxStates)
	}

	m := solveBirthDeath(population, servers, mu, func(n int) float64 {
		return float64(population-n) * lambda
	})
	m.Model = "M/M/s/N"
	m.Rho = float64(population) * lambda / (float64(servers) * mu)
	return m, nil
}

// MG1 solves the M/G/1 queue with the Pollaczek-Khinchine formula:
//
//	Lq = (λ²σ² + ρ²) / (2(1-ρ))
//
// where σ² is the service-time variance. σ² = 1/μ² reproduces M/M/1 and
// σ² = 0 gives M/D/1.
func MG1(lambda, mu, variance float64) (SingleMetrics, error) {
	if err := checkRates(lambda, mu); err != nil {
		return SingleMetrics{}, err
	}
	if math.IsNaN(variance) || variance < 0 {
		return SingleMetrics{}, invalid("variance", "service-time variance must be ≥ 0, got %g", variance)
	}
	if err := checkStable(lambda, mu, 1); err != nil {
		return SingleMetrics{}, err
	}

	rho := lambda / mu
	lq := (lambda*lambda*variance + rho*rho) / (2 * (1 - rho))
	var wq float64
	if lambda > 0 {
		wq = lq / lambda
	}
	return SingleMetrics{
		Model:       "M/G/1",
		Rho:         rho,
		Utilization: rho,
		P0:          1 - rho,
		L:           lq + rho,
		Lq:          lq,
		W:           wq + 1/mu,
		Wq:          wq,
		LambdaEff:   lambda,
	}, nil
}

// MaxStates bounds the state space of the finite models.
const MaxStates = 100_000

// solveBirthDeath solves a finite birth-death chain on 0..maxN with arrival
// rate arrival(n) in state n and service rate min(n, s)·μ.
func solveBirthDeath(maxN, servers int, mu float64, arrival func(n int) float64) SingleMetrics {
	weights := make([]float64, maxN+1)
	weights[0] = 1
	for n := 1; n <= maxN; n++ {
		weights[n] = weights[n-1] * arrival(n-1) / (float64(min(n, servers)) * mu)
		// Rescale before the product overflows; only ratios matter.
		if weights[n] > 1e250 {
			for i := 0; i <= n; i++ {
				weights[i] *= 1e-250
			}
		}
	}

	var total float64
	for _, w := range weights {
		total += w
	}
	probs := make([]float64, maxN+1)
	for n, w := range weights {
		probs[n] = w / total
	}

	var l, lq, lambdaEff float64
	for n, p := range probs {
		l += float64(n) * p
		if n > servers {
			lq += float64(n-servers) * p
		}
		lambdaEff += arrival(n) * p
	}
	// No admissions from the full state.
	lambdaEff -= arrival(maxN) * probs[maxN]

	m := SingleMetrics{
		Utilization: (l - lq) / float64(servers),
		P0:          probs[0],
		L:           l,
		Lq:          lq,
		LambdaEff:   lambdaEff,
		pn: func(n int) float64 {
			if n < 0 || n > maxN {
				return 0
			}
			return probs[n]
		},
	}
	if lambdaEff > 0 {
		m.W = l / lambdaEff
		m.Wq = lq / lambdaEff
	} else {
		m.W = 1 / mu
	}
	return m
}
