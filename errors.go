package queuelaw

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is matched by every *ValidationError.
	ErrInvalidInput = errors.New("queuelaw: invalid input")

	// ErrUnstable is matched by every *InstabilityError.
	ErrUnstable = errors.New("queuelaw: unstable system")

	// ErrTargetUnreachable is returned by MinServers when no server count
	// within the limit meets the wait target.
	ErrTargetUnreachable = errors.New("queuelaw: wait target unreachable")
)

// ValidationError reports malformed input: a negative rate, μ ≤ 0, fewer than
// one server, a class list that does not match the declared class count, or
// per-class rates that do not add up to the aggregate λ.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// InstabilityError reports that the offered load reaches or exceeds the
// service capacity, so no finite steady state exists.
//
//	ρ = λ / (s·μ) ≥ 1
type InstabilityError struct {
	Lambda   float64 // Offered aggregate arrival rate
	Capacity float64 // s·μ
	Rho      float64 // λ / (s·μ)
}

func (e *InstabilityError) Error() string {
	return fmt.Sprintf("unstable system: ρ = %.6f ≥ 1 (λ = %g, s·μ = %g)",
		e.Rho, e.Lambda, e.Capacity)
}

func (e *InstabilityError) Unwrap() error { return ErrUnstable }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// checkStable returns an *InstabilityError when λ ≥ s·μ.
func checkStable(lambda, mu float64, servers int) error {
	capacity := float64(servers) * mu
	rho := lambda / capacity
	if rho >= 1 {
		return &InstabilityError{Lambda: lambda, Capacity: capacity, Rho: rho}
	}
	return nil
}
