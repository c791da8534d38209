package queuelaw

import (
	"errors"
	"math"
	"testing"
)

// DefaultTolerance is the relative tolerance used by the assertion helpers.
const DefaultTolerance = 1e-9

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// AssertLittleConsistency verifies Little's law and the service-time identity
// for every present class of r:
//
//	L = λᵢ·W,  Lq = λᵢ·Wq,  W = Wq + 1/μ
//
// Absent classes must report all-zero metrics.
func AssertLittleConsistency(t *testing.T, r Result, tol float64) {
	t.Helper()

	mu := r.Spec.Mu
	for _, c := range r.Classes {
		if !c.Present {
			if c.W != 0 || c.Wq != 0 || c.L != 0 || c.Lq != 0 {
				t.Errorf("class %d has no traffic but reports W=%g Wq=%g L=%g Lq=%g",
					c.Class, c.W, c.Wq, c.L, c.Lq)
			}
			continue
		}
		if !approxEqual(c.L, c.Lambda*c.W, tol) {
			t.Errorf("class %d: L = %.12g, λW = %.12g", c.Class, c.L, c.Lambda*c.W)
		}
		if !approxEqual(c.Lq, c.Lambda*c.Wq, tol) {
			t.Errorf("class %d: Lq = %.12g, λWq = %.12g", c.Class, c.Lq, c.Lambda*c.Wq)
		}
		if !approxEqual(c.W, c.Wq+1/mu, tol) {
			t.Errorf("class %d: W = %.12g, Wq + 1/μ = %.12g", c.Class, c.W, c.Wq+1/mu)
		}
	}

	t.Logf("✓ Little's law holds for %d present classes (%s)", len(r.Present()), r.Variant)
}

// AssertAggregates verifies the system metrics of r against its classes:
//
//	L = Σ Lᵢ,  Lq = Σ Lqᵢ,  W = Σ λᵢWᵢ / λ,  Wq = Σ λᵢWqᵢ / λ,  ρ = λ/(sμ)
func AssertAggregates(t *testing.T, r Result, tol float64) {
	t.Helper()

	var l, lq, weightedW, weightedWq float64
	for _, c := range r.Present() {
		l += c.L
		lq += c.Lq
		weightedW += c.Lambda * c.W
		weightedWq += c.Lambda * c.Wq
	}

	if !approxEqual(r.System.L, l, tol) {
		t.Errorf("System L = %.12g, Σ Lᵢ = %.12g", r.System.L, l)
	}
	if !approxEqual(r.System.Lq, lq, tol) {
		t.Errorf("System Lq = %.12g, Σ Lqᵢ = %.12g", r.System.Lq, lq)
	}
	if r.Spec.Lambda > 0 {
		if !approxEqual(r.System.W, weightedW/r.Spec.Lambda, tol) {
			t.Errorf("System W = %.12g, weighted mean = %.12g", r.System.W, weightedW/r.Spec.Lambda)
		}
		if !approxEqual(r.System.Wq, weightedWq/r.Spec.Lambda, tol) {
			t.Errorf("System Wq = %.12g, weighted mean = %.12g", r.System.Wq, weightedWq/r.Spec.Lambda)
		}
	}
	if !approxEqual(r.System.Rho, r.Spec.Rho(), tol) {
		t.Errorf("System ρ = %.12g, λ/(sμ) = %.12g", r.System.Rho, r.Spec.Rho())
	}

	t.Logf("✓ Aggregates consistent: L=%.6f W=%.6f ρ=%.4f", r.System.L, r.System.W, r.System.Rho)
}

// AssertStable fails the test unless spec has a finite steady state.
func AssertStable(t *testing.T, spec PrioritySpec) {
	t.Helper()

	err := spec.Validate()
	var unstable *InstabilityError
	switch {
	case errors.As(err, &unstable):
		t.Fatalf("System unstable: ρ = %.4f (λ = %g, s·μ = %g)",
			unstable.Rho, unstable.Lambda, unstable.Capacity)
	case err != nil:
		t.Fatalf("Invalid spec: %v", err)
	}

	t.Logf("✓ Stable: ρ = %.4f", spec.Rho())
}
