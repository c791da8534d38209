package queuelaw

import (
	"math"
)

// OccupancyState is the steady-state distribution of an M/M/s queue fed by a
// single (possibly merged) Poisson stream.
//
// With a = λ/μ and ρ = a/s:
//
//	p0 = [ Σ_{n=0}^{s-1} aⁿ/n!  +  (aˢ/s!) · 1/(1-ρ) ]⁻¹
//	Pn = (aⁿ/n!) · p0                 for n < s
//	Pn = aⁿ / (s!·s^{n-s}) · p0       for n ≥ s
//	Lq = p0 · aˢ · ρ / (s! · (1-ρ)²)  (Erlang C)
type OccupancyState struct {
	Rate    float64 // Combined arrival rate of the sub-system
	Mu      float64 // Service rate of one server
	Servers int     // s
	A       float64 // Offered load a = λ/μ
	Rho     float64 // a/s
	P0      float64 // Probability the system is empty
	Lq      float64 // Mean number waiting

	// P(N = s) = p0·aˢ/s!, feeding Lq and ProbWait.
	probFull float64
	// ln p0, finite even when P0 underflows.
	logP0 float64
}

// Occupancy solves the M/M/s sub-system with the given combined arrival rate.
// It is a pure function and is called once per cumulative sub-system by the
// priority variants.
func Occupancy(combinedRate, mu float64, servers int) (OccupancyState, error) {
	if math.IsNaN(mu) || mu <= 0 {
		return OccupancyState{}, invalid("mu", "service rate must be > 0, got %g", mu)
	}
	if servers < 1 {
		return OccupancyState{}, invalid("servers", "need at least one server, got %d", servers)
	}
	if math.IsNaN(combinedRate) || combinedRate < 0 {
		return OccupancyState{}, invalid("lambda", "arrival rate must be ≥ 0, got %g", combinedRate)
	}
	if err := checkStable(combinedRate, mu, servers); err != nil {
		return OccupancyState{}, err
	}

	a := combinedRate / mu
	rho := a / float64(servers)

	// term holds aⁿ/n!, built as a running product. Both term and sum are
	// rescaled by 1e-250 whenever term grows past 1e250; shifts counts how
	// often.
	sum := 0.0
	term := 1.0
	shifts := 0
	for n := 0; n < servers; n++ {
		sum += term
		term *= a / float64(n+1)
		if term > 1e250 {
			sum *= 1e-250
			term *= 1e-250
			shifts++
		}
	}
	// term is now aˢ/s! in rescaled units.
	norm := sum + term/(1-rho)
	probFull := term / norm
	p0 := 1 / norm
	logP0 := -math.Log(norm) - float64(shifts)*250*math.Ln10
	for ; shifts > 0; shifts-- {
		p0 *= 1e-250
	}

	return OccupancyState{
		Rate:     combinedRate,
		Mu:       mu,
		Servers:  servers,
		A:        a,
		Rho:      rho,
		P0:       p0,
		Lq:       probFull * rho / ((1 - rho) * (1 - rho)),
		probFull: probFull,
		logP0:    logP0,
	}, nil
}

// Pn returns the probability of exactly n customers in the sub-system. It is
// evaluated in log space so neither aⁿ, n! nor a tiny p0 under- or overflows:
//
//	ln Pn = ln p0 + n·ln a − ln n!                      for n < s
//	ln Pn = ln p0 + n·ln a − ln s! − (n−s)·ln s         for n ≥ s
func (o OccupancyState) Pn(n int) float64 {
	switch {
	case n < 0:
		return 0
	case n == 0:
		return o.P0
	case o.A == 0:
		return 0
	}
	logA := math.Log(o.A)
	if n < o.Servers {
		lf, _ := math.Lgamma(float64(n + 1))
		return math.Exp(o.logP0 + float64(n)*logA - lf)
	}
	lf, _ := math.Lgamma(float64(o.Servers + 1))
	excess := float64(n - o.Servers)
	return math.Exp(o.logP0 + float64(n)*logA - lf - excess*math.Log(float64(o.Servers)))
}

// ProbWait returns the Erlang-C probability that an arrival has to queue:
//
//	C(s, a) = (aˢ/s!) · p0 / (1-ρ)
func (o OccupancyState) ProbWait() float64 {
	return o.probFull / (1 - o.Rho)
}

// Wq returns the mean wait in queue, Lq/λ. An idle sub-system never waits.
func (o OccupancyState) Wq() float64 {
	if o.Rate == 0 {
		return 0
	}
	return o.Lq / o.Rate
}

// W returns the mean time in system, Wq + 1/μ.
func (o OccupancyState) W() float64 {
	return o.Wq() + 1/o.Mu
}

// L returns the mean number in system, Lq + a.
func (o OccupancyState) L() float64 {
	return o.Lq + o.A
}
