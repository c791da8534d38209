package queuelaw

// NonPreemptiveSingleServerClasses is the fixed class count of
// NonPreemptiveSingleServer.
const NonPreemptiveSingleServerClasses = 3

// NonPreemptiveClassWait returns the mean time in system of class k (1-based)
// in an s-server system without interruption:
//
//	A    = s!·(sμ - λ)/aˢ · Σ_{j=0}^{s-1} aʲ/j!  +  sμ
//	B_k  = 1 - Λ_k/(sμ)
//	W(k) = 1 / (A · B_{k-1} · B_k)  +  1/μ
//
// where a = λ/μ and Λ_k is the cumulative rate of classes 1..k (Λ₀ = 0).
// With no traffic at all, W(k) = 1/μ.
func NonPreemptiveClassWait(spec PrioritySpec, k int) (float64, error) {
	if err := spec.validateFor(0, 0); err != nil {
		return 0, err
	}
	if k < 1 || k > len(spec.Rates) {
		return 0, invalid("class", "class %d out of range 1..%d", k, len(spec.Rates))
	}
	return nonPreemptiveWait(spec, cumulativeRates(spec.Rates), k), nil
}

// nonPreemptiveWait evaluates W(k) for a validated spec.
func nonPreemptiveWait(spec PrioritySpec, cum []float64, k int) float64 {
	mu := spec.Mu
	if spec.Lambda == 0 {
		return 1 / mu
	}

	s := spec.Servers
	smu := float64(s) * mu
	a := spec.Lambda / mu

	// s!/aˢ · Σ_{j<s} aʲ/j!  =  Σ_{j<s} s!/(j!·a^{s-j}),
	// accumulated from j = s-1 downwards to keep every term finite.
	var scaled float64
	term := float64(s) / a // j = s-1: s!/((s-1)!·a)
	for j := s - 1; j >= 0; j-- {
		scaled += term
		if j > 0 {
			term *= float64(j) / a
		}
	}

	A := scaled*(smu-spec.Lambda) + smu
	bPrev := 1 - cum[k-1]/smu
	bCur := 1 - cum[k]/smu

	return 1/(A*bPrev*bCur) + 1/mu
}

// NonPreemptiveMultiServer evaluates NonPreemptiveClassWait for every class
// with λₖ > 0 and derives the remaining metrics. Any number of classes.
func NonPreemptiveMultiServer(spec PrioritySpec) (Result, error) {
	if err := spec.validateFor(0, 0); err != nil {
		return Result{}, err
	}

	cum := cumulativeRates(spec.Rates)
	classes := make([]ClassMetrics, len(spec.Rates))
	for i, lambda := range spec.Rates {
		if lambda == 0 {
			classes[i] = absentClass(i + 1)
			continue
		}
		w := nonPreemptiveWait(spec, cum, i+1)
		classes[i] = classFromW(i+1, lambda, spec.Mu, w)
	}

	return Result{
		Variant: NonPreemptiveMulti,
		Spec:    spec,
		Classes: classes,
		System:  aggregate(spec, classes),
	}, nil
}

// NonPreemptiveSingleServer is the closed-form three-class, single-server
// specialization. With S₁ = λ₁, S₂ = λ₁+λ₂, S₃ = λ₁+λ₂+λ₃:
//
//	W₁ = 1 / (μ - S₁)
//	W₂ = μ / [ (μ - S₁)(μ - S₂) ]
//	W₃ = μ / [ (μ - S₂)(μ - S₃) ]
func NonPreemptiveSingleServer(spec PrioritySpec) (Result, error) {
	if err := spec.validateShape(); err != nil {
		return Result{}, err
	}
	if len(spec.Rates) != NonPreemptiveSingleServerClasses {
		return Result{}, invalid("rates", "exactly %d classes required, got %d",
			NonPreemptiveSingleServerClasses, len(spec.Rates))
	}
	if spec.Servers != 1 {
		return Result{}, invalid("servers", "this variant requires s = 1, got %d", spec.Servers)
	}
	if err := checkStable(spec.Lambda, spec.Mu, 1); err != nil {
		return Result{}, err
	}

	mu := spec.Mu
	cum := cumulativeRates(spec.Rates)
	waits := [NonPreemptiveSingleServerClasses]float64{
		1 / (mu - cum[1]),
		mu / ((mu - cum[1]) * (mu - cum[2])),
		mu / ((mu - cum[2]) * (mu - cum[3])),
	}

	classes := make([]ClassMetrics, NonPreemptiveSingleServerClasses)
	for i, lambda := range spec.Rates {
		if lambda == 0 {
			classes[i] = absentClass(i + 1)
			continue
		}
		classes[i] = classFromW(i+1, lambda, mu, waits[i])
	}

	return Result{
		Variant: NonPreemptiveSingle,
		Spec:    spec,
		Classes: classes,
		System:  aggregate(spec, classes),
	}, nil
}
