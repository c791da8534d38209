package queuelaw

// PreemptiveSingleServer solves a single-server system where a higher-priority
// arrival interrupts a lower-priority customer in service.
//
// For class x with cumulative rates Λ_{x-1} and Λ_x:
//
//	W_x = (1/μ) / [ (1 - Λ_{x-1}/μ) · (1 - Λ_x/μ) ]
//
// Up to MaxPreemptiveClasses classes; s must be 1. Classes with λ_x = 0 are
// skipped and do not enter the aggregates.
func PreemptiveSingleServer(spec PrioritySpec) (Result, error) {
	if err := spec.validateFor(MaxPreemptiveClasses, 1); err != nil {
		return Result{}, err
	}

	mu := spec.Mu
	cum := cumulativeRates(spec.Rates)
	classes := make([]ClassMetrics, len(spec.Rates))

	for i, lambda := range spec.Rates {
		if lambda == 0 {
			classes[i] = absentClass(i + 1)
			continue
		}
		w := (1 / mu) / ((1 - cum[i]/mu) * (1 - cum[i+1]/mu))
		classes[i] = classFromW(i+1, lambda, mu, w)
	}

	return Result{
		Variant: PreemptiveSingle,
		Spec:    spec,
		Classes: classes,
		System:  aggregate(spec, classes),
	}, nil
}

// PreemptiveMultiServer solves an s-server system with interruption.
//
// Classes are solved in priority order. For class x the cumulative
// sub-system of classes 1..x is treated as one M/M/s queue at rate Λ_x:
//
//	W_ms = Lq(Λ_x)/Λ_x + 1/μ
//
// W_ms is the λ-weighted mean of the individual waits of classes 1..x, so
// with W₁..W_{x-1} already known:
//
//	W_x = ( W_ms - Σ_{i<x} (λᵢ/Λ_x)·Wᵢ ) / (λ_x/Λ_x)
//
// Class 1 is the plain M/M/s wait of λ₁. Up to MaxPreemptiveClasses classes.
func PreemptiveMultiServer(spec PrioritySpec) (Result, error) {
	if err := spec.validateFor(MaxPreemptiveClasses, 0); err != nil {
		return Result{}, err
	}

	mu := spec.Mu
	cum := cumulativeRates(spec.Rates)
	classes := make([]ClassMetrics, len(spec.Rates))

	// Σ λᵢ·Wᵢ over the classes solved so far.
	var solved float64

	for i, lambda := range spec.Rates {
		if lambda == 0 {
			classes[i] = absentClass(i + 1)
			continue
		}

		rate := cum[i+1]
		sub, err := Occupancy(rate, mu, spec.Servers)
		if err != nil {
			return Result{}, err
		}
		// rate ≥ lambda > 0 here.
		w := (sub.W() - solved/rate) / (lambda / rate)

		classes[i] = classFromW(i+1, lambda, mu, w)
		solved += lambda * w
	}

	return Result{
		Variant: PreemptiveMulti,
		Spec:    spec,
		Classes: classes,
		System:  aggregate(spec, classes),
	}, nil
}
