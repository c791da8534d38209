// Package queuelaw computes steady-state metrics of Markovian queues with
// multiple priority classes.
//
// # Overview
//
// Customers arrive in K classes, class 1 having the highest priority. Every
// class arrives as a Poisson stream at rate λᵢ and is served by one of s
// identical exponential servers at rate μ. The aggregate rate is λ = Σ λᵢ
// and the system is stable only while
//
//	ρ = λ / (s·μ) < 1
//
// For each class the package reports W (mean time in system), Wq (mean
// time in queue), L (mean number in system) and Lq (mean number in queue),
// plus the λ-weighted system aggregates.
//
// # Variants
//
// Four formulas cover the supported disciplines:
//
//   - MCPCI   preemptive, one server, up to 4 classes
//   - MCPCIS  preemptive, s servers, up to 4 classes
//   - MCPSI   non-preemptive, s servers, any number of classes
//   - MCPSI1  non-preemptive, one server, exactly 3 classes
//
// Select picks the variant for a discipline and system shape; Solve does
// both steps:
//
//	spec := queuelaw.NewPrioritySpec(15, 1, 4, 3, 3)
//	res, err := queuelaw.Solve(spec, queuelaw.Preemptive)
//	if errors.Is(err, queuelaw.ErrUnstable) {
//	    // add servers or shed load
//	}
//	for _, key := range res.Table(6).Keys() {
//	    fmt.Println(key, res.Table(6)[key])
//	}
//
// Every variant is built on Occupancy, the M/M/s distribution of one merged
// stream. A class with λᵢ = 0 is skipped: it has no metrics and does not
// enter the aggregates.
//
// # Single-class models
//
// MM1, MMS, MM1K, MMSK, MM1N, MMSN and MG1 cover the classic one-class
// queues, including finite capacity, finite population and general service
// times. Evaluate dispatches any of them, or a priority variant, from a
// Request keyed by model code; Models and Lookup describe the catalog.
//
// # Capacity planning
//
//	plan, err := queuelaw.MinServers(spec, queuelaw.NonPreemptive, 3, 0.25, 32)
//	room, err := queuelaw.Headroom(spec)
//	points, err := queuelaw.Sweep(ctx, spec, queuelaw.Preemptive,
//	    []float64{0.5, 1, 1.2, 1.4}, queuelaw.DefaultSweepConfig())
//
// MinServers finds the fewest servers meeting a class wait target. Sweep
// evaluates scaled copies of a spec concurrently.
//
// # Test helpers
//
// AssertLittleConsistency, AssertAggregates and AssertStable check the
// invariants every result must satisfy and narrate them to the test log.
package queuelaw
