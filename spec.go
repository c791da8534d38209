package queuelaw

import (
	"math"
)

// MaxPreemptiveClasses is the largest class count accepted by the preemptive
// variants.
const MaxPreemptiveClasses = 4

// rateTolerance bounds |Σλᵢ - λ| relative to max(1, λ).
const rateTolerance = 1e-9

// Discipline selects how a higher-priority arrival treats a lower-priority
// customer already in service.
type Discipline string

const (
	Preemptive    Discipline = "preemptive"     // With interruption
	NonPreemptive Discipline = "non-preemptive" // Without interruption
)

// PrioritySpec describes a multi-class priority system.
//
// Rates[0] is class 1, the highest priority. A class with rate 0 is kept as a
// slot but is skipped by every computation.
type PrioritySpec struct {
	Lambda  float64   // λ: aggregate arrival rate, must equal Σ Rates
	Mu      float64   // μ: service rate of one server
	Servers int       // s: number of identical servers
	Rates   []float64 // λ₁..λ_K in priority order
	Classes int       // Declared class count (0 = len(Rates))
}

// NewPrioritySpec builds a spec whose aggregate λ is the sum of rates.
func NewPrioritySpec(mu float64, servers int, rates ...float64) PrioritySpec {
	var lambda float64
	for _, r := range rates {
		lambda += r
	}
	return PrioritySpec{
		Lambda:  lambda,
		Mu:      mu,
		Servers: servers,
		Rates:   append([]float64(nil), rates...),
	}
}

// Rho returns the utilization λ/(s·μ).
func (s PrioritySpec) Rho() float64 {
	return s.Lambda / (float64(s.Servers) * s.Mu)
}

// Validate checks the input shape and then stability. Shape problems are
// reported as *ValidationError before stability is considered.
func (s PrioritySpec) Validate() error {
	if err := s.validateShape(); err != nil {
		return err
	}
	return checkStable(s.Lambda, s.Mu, s.Servers)
}

func (s PrioritySpec) validateShape() error {
	if math.IsNaN(s.Mu) || s.Mu <= 0 {
		return invalid("mu", "service rate must be > 0, got %g", s.Mu)
	}
	if s.Servers < 1 {
		return invalid("servers", "need at least one server, got %d", s.Servers)
	}
	if math.IsNaN(s.Lambda) || s.Lambda < 0 {
		return invalid("lambda", "arrival rate must be ≥ 0, got %g", s.Lambda)
	}
	if len(s.Rates) == 0 {
		return invalid("rates", "at least one class is required")
	}
	if s.Classes != 0 && s.Classes != len(s.Rates) {
		return invalid("rates", "declared %d classes but got %d rates", s.Classes, len(s.Rates))
	}

	var sum float64
	for i, r := range s.Rates {
		if math.IsNaN(r) || r < 0 {
			return invalid("rates", "class %d rate must be ≥ 0, got %g", i+1, r)
		}
		sum += r
	}
	if math.Abs(sum-s.Lambda) > rateTolerance*math.Max(1, s.Lambda) {
		return invalid("rates", "class rates sum to %g but λ = %g", sum, s.Lambda)
	}
	return nil
}

// validateFor applies the variant-specific limits between the shape checks
// and the stability check. servers = 0 accepts any server count.
func (s PrioritySpec) validateFor(maxClasses, servers int) error {
	if err := s.validateShape(); err != nil {
		return err
	}
	if maxClasses > 0 && len(s.Rates) > maxClasses {
		return invalid("rates", "at most %d classes supported, got %d", maxClasses, len(s.Rates))
	}
	if servers > 0 && s.Servers != servers {
		return invalid("servers", "this variant requires s = %d, got %d", servers, s.Servers)
	}
	return checkStable(s.Lambda, s.Mu, s.Servers)
}

// cumulativeRates returns Λ₀..Λ_K where Λ₀ = 0 and Λ_x = Σ_{i≤x} λᵢ.
func cumulativeRates(rates []float64) []float64 {
	cum := make([]float64, len(rates)+1)
	for i, r := range rates {
		cum[i+1] = cum[i] + r
	}
	return cum
}

// ClassMetrics holds the steady-state metrics of one priority class.
type ClassMetrics struct {
	Class   int     // 1-based priority rank
	Lambda  float64 // λᵢ
	Present bool    // false when λᵢ = 0; all metrics are then zero
	W       float64 // Mean time in system
	Wq      float64 // Mean time in queue
	L       float64 // Mean number in system
	Lq      float64 // Mean number in queue
}

// SystemMetrics aggregates the per-class metrics.
type SystemMetrics struct {
	Rho float64 // λ/(s·μ)
	W   float64 // Σ λᵢ·Wᵢ / λ
	Wq  float64 // Σ λᵢ·Wqᵢ / λ
	L   float64 // Σ Lᵢ
	Lq  float64 // Σ Lqᵢ
}

// Result is the output of one priority-engine evaluation.
type Result struct {
	Variant Variant
	Spec    PrioritySpec
	Classes []ClassMetrics
	System  SystemMetrics
}

// Present returns the classes with λᵢ > 0.
func (r Result) Present() []ClassMetrics {
	out := make([]ClassMetrics, 0, len(r.Classes))
	for _, c := range r.Classes {
		if c.Present {
			out = append(out, c)
		}
	}
	return out
}

// Class returns the metrics of class k (1-based).
func (r Result) Class(k int) (ClassMetrics, bool) {
	if k < 1 || k > len(r.Classes) {
		return ClassMetrics{}, false
	}
	return r.Classes[k-1], true
}

// classFromW fills the derived metrics from a class's time in system:
//
//	Wq = W - 1/μ,  L = λᵢ·W,  Lq = L - λᵢ/μ
func classFromW(class int, lambda, mu, w float64) ClassMetrics {
	l := lambda * w
	return ClassMetrics{
		Class:   class,
		Lambda:  lambda,
		Present: true,
		W:       w,
		Wq:      w - 1/mu,
		L:       l,
		Lq:      l - lambda/mu,
	}
}

func absentClass(class int) ClassMetrics {
	return ClassMetrics{Class: class}
}

// aggregate computes the system metrics from solved classes.
func aggregate(spec PrioritySpec, classes []ClassMetrics) SystemMetrics {
	sys := SystemMetrics{Rho: spec.Rho()}

	var weightedW, weightedWq, lambda float64
	for _, c := range classes {
		if !c.Present {
			continue
		}
		weightedW += c.Lambda * c.W
		weightedWq += c.Lambda * c.Wq
		lambda += c.Lambda
		sys.L += c.L
		sys.Lq += c.Lq
	}

	if lambda > 0 {
		sys.W = weightedW / spec.Lambda
		sys.Wq = weightedWq / spec.Lambda
	}
	return sys
}
