package queuelaw

import (
	"fmt"
	"math"
)

// LoadZone classifies a system by utilization.
type LoadZone string

const (
	ZoneLow      LoadZone = "LOW"      // ρ < 0.5: servers mostly idle
	ZoneNominal  LoadZone = "NOMINAL"  // 0.5 ≤ ρ < 0.8
	ZoneHigh     LoadZone = "HIGH"     // 0.8 ≤ ρ < 1: waits grow like 1/(1-ρ)
	ZoneUnstable LoadZone = "UNSTABLE" // ρ ≥ 1: the queue grows without bound
)

// ZoneFor returns the load zone of utilization rho.
func ZoneFor(rho float64) LoadZone {
	switch {
	case rho >= 1:
		return ZoneUnstable
	case rho >= 0.8:
		return ZoneHigh
	case rho >= 0.5:
		return ZoneNominal
	default:
		return ZoneLow
	}
}

// HeadroomReport describes how far a system is from instability.
type HeadroomReport struct {
	Load      float64  // λ
	Capacity  float64  // s·μ
	Spare     float64  // s·μ - λ, negative when overloaded
	Rho       float64  // λ/(s·μ)
	MaxFactor float64  // Largest uniform scale of all class rates that stays stable (exclusive)
	Zone      LoadZone // Classification of Rho
}

// Headroom reports the spare aggregate rate of spec before ρ reaches 1.
//
// Only the shape of spec is validated: an overloaded spec is reported with a
// negative Spare and ZoneUnstable rather than an error.
//
//	Spare     = s·μ - λ
//	MaxFactor = s·μ / λ   (+Inf when λ = 0)
func Headroom(spec PrioritySpec) (HeadroomReport, error) {
	if err := spec.validateShape(); err != nil {
		return HeadroomReport{}, err
	}

	capacity := float64(spec.Servers) * spec.Mu
	rep := HeadroomReport{
		Load:      spec.Lambda,
		Capacity:  capacity,
		Spare:     capacity - spec.Lambda,
		Rho:       spec.Rho(),
		MaxFactor: math.Inf(1),
	}
	if spec.Lambda > 0 {
		rep.MaxFactor = capacity / spec.Lambda
	}
	rep.Zone = ZoneFor(rep.Rho)
	return rep, nil
}

// CapacityPlan is the outcome of MinServers.
type CapacityPlan struct {
	Servers int     // Smallest s meeting the target
	Variant Variant // Variant used at that s
	W       float64 // Achieved mean time in system of the target class
	Result  Result  // Full evaluation at Servers
}

// MinServers returns the smallest server count, at most maxServers, for which
// class (1-based) has a mean time in system of at most targetW under the
// given discipline. spec.Servers is ignored.
//
// The search starts at the first stable count ⌊λ/μ⌋ + 1. W never drops below
// 1/μ, so a target under the bare service time fails immediately with
// ErrTargetUnreachable.
//
// Example:
//
//	spec := queuelaw.NewPrioritySpec(4, 1, 3, 2)
//	plan, err := queuelaw.MinServers(spec, queuelaw.Preemptive, 2, 0.5, 16)
//	if errors.Is(err, queuelaw.ErrTargetUnreachable) {
//	    // relax the target or add faster servers
//	}
func MinServers(spec PrioritySpec, d Discipline, class int, targetW float64, maxServers int) (CapacityPlan, error) {
	if maxServers < 1 {
		return CapacityPlan{}, invalid("servers", "server limit must be ≥ 1, got %d", maxServers)
	}
	if math.IsNaN(targetW) || targetW <= 0 {
		return CapacityPlan{}, invalid("target", "wait target must be > 0, got %g", targetW)
	}

	probe := spec
	probe.Servers = 1
	if err := probe.validateShape(); err != nil {
		return CapacityPlan{}, err
	}
	if class < 1 || class > len(spec.Rates) {
		return CapacityPlan{}, invalid("class", "class %d out of range 1..%d", class, len(spec.Rates))
	}
	if spec.Rates[class-1] == 0 {
		return CapacityPlan{}, invalid("class", "class %d carries no traffic", class)
	}
	if targetW < 1/spec.Mu {
		return CapacityPlan{}, fmt.Errorf("%w: target %g is below the service time 1/μ = %g",
			ErrTargetUnreachable, targetW, 1/spec.Mu)
	}

	start := int(math.Floor(spec.Lambda/spec.Mu)) + 1
	best := math.Inf(1)
	for s := start; s <= maxServers; s++ {
		probe.Servers = s
		res, err := Solve(probe, d)
		if err != nil {
			return CapacityPlan{}, err
		}
		c, _ := res.Class(class)
		if c.W <= targetW {
			return CapacityPlan{Servers: s, Variant: res.Variant, W: c.W, Result: res}, nil
		}
		best = c.W
	}

	return CapacityPlan{}, fmt.Errorf("%w: class %d needs W ≤ %g, best %g with %d servers",
		ErrTargetUnreachable, class, targetW, best, maxServers)
}
