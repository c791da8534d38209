package queuelaw

import (
	"errors"
	"math"
	"testing"
)

func TestMM1(t *testing.T) {
	m, err := MM1(5, 7)
	if err != nil {
		t.Fatalf("MM1 failed: %v", err)
	}

	checks := []struct {
		name      string
		got, want float64
	}{
		{"W", m.W, 0.5},
		{"L", m.L, 2.5},
		{"Lq", m.Lq, 2.5 - 5.0/7},
		{"Wq", m.Wq, 0.5 - 1.0/7},
		{"P0", m.P0, 2.0 / 7},
		{"Rho", m.Rho, 5.0 / 7},
	}
	for _, c := range checks {
		if !approxEqual(c.got, c.want, 1e-12) {
			t.Errorf("%s: expected %.10f, got %.10f", c.name, c.want, c.got)
		}
	}
	if m.Model != "M/M/1" {
		t.Errorf("Expected model M/M/1, got %s", m.Model)
	}

	// Pn = (1-ρ)ρⁿ
	if !approxEqual(m.Pn(3), (2.0/7)*math.Pow(5.0/7, 3), 1e-12) {
		t.Errorf("P3 = %.10f", m.Pn(3))
	}

	pw, pwq, ok := m.Tail(0)
	if !ok || !approxEqual(pw, 1, 1e-12) || !approxEqual(pwq, 5.0/7, 1e-12) {
		t.Errorf("Tail(0) = %.6f, %.6f, %v; want 1, ρ", pw, pwq, ok)
	}
	// P(W > t) = e^{-(μ-λ)t} for M/M/1
	pw, _, _ = m.Tail(0.75)
	if !approxEqual(pw, math.Exp(-2*0.75), 1e-12) {
		t.Errorf("P(W > 0.75) = %.10f, want %.10f", pw, math.Exp(-1.5))
	}

	t.Logf("✓ M/M/1 λ=5 μ=7: W=%.4f L=%.4f", m.W, m.L)
}

func TestMMS_TailMatchesClosedForm(t *testing.T) {
	m, err := MMS(3, 4, 2)
	if err != nil {
		t.Fatalf("MMS failed: %v", err)
	}
	occ, _ := Occupancy(3, 4, 2)

	if m.W != occ.W() || m.Lq != occ.Lq {
		t.Errorf("MMS disagrees with occupancy core: W=%g/%g Lq=%g/%g", m.W, occ.W(), m.Lq, occ.Lq)
	}

	// P(Wq > t) integrates to Wq.
	var integral float64
	const dt = 1e-4
	for x := dt / 2; x < 20; x += dt {
		_, pwq, _ := m.Tail(x)
		integral += pwq * dt
	}
	if math.Abs(integral-m.Wq) > 1e-6 {
		t.Errorf("∫P(Wq > t)dt = %.8f, Wq = %.8f", integral, m.Wq)
	}
}

func TestMMSK_LargeCapacityApproachesMMS(t *testing.T) {
	finite, err := MMSK(3, 4, 2, 400)
	if err != nil {
		t.Fatalf("MMSK failed: %v", err)
	}
	infinite, err := MMS(3, 4, 2)
	if err != nil {
		t.Fatalf("MMS failed: %v", err)
	}

	for name, pair := range map[string][2]float64{
		"L":  {finite.L, infinite.L},
		"Lq": {finite.Lq, infinite.Lq},
		"W":  {finite.W, infinite.W},
		"P0": {finite.P0, infinite.P0},
	} {
		if !approxEqual(pair[0], pair[1], 1e-9) {
			t.Errorf("%s: M/M/2/400 = %.12f, M/M/2 = %.12f", name, pair[0], pair[1])
		}
	}
}

func TestMM1K(t *testing.T) {
	// λ=2, μ=3, K=3: weights 1, 2/3, 4/9, 8/27
	m, err := MM1K(2, 3, 3)
	if err != nil {
		t.Fatalf("MM1K failed: %v", err)
	}

	checks := []struct {
		name      string
		got, want float64
	}{
		{"P0", m.P0, 27.0 / 65},
		{"PK", m.Pn(3), 8.0 / 65},
		{"L", m.L, 66.0 / 65},
		{"Lq", m.Lq, 28.0 / 65},
		{"LambdaEff", m.LambdaEff, 114.0 / 65},
		{"W", m.W, 66.0 / 114},
		{"Utilization", m.Utilization, 38.0 / 65},
	}
	for _, c := range checks {
		if !approxEqual(c.got, c.want, 1e-12) {
			t.Errorf("%s: expected %.10f, got %.10f", c.name, c.want, c.got)
		}
	}
	if m.Pn(4) != 0 {
		t.Errorf("P4 beyond capacity should be 0, got %g", m.Pn(4))
	}
}

func TestMM1K_OverloadIsStable(t *testing.T) {
	m, err := MM1K(10, 5, 4)
	if err != nil {
		t.Fatalf("Finite capacity should accept ρ > 1: %v", err)
	}
	if m.Rho != 2 {
		t.Errorf("Expected offered ρ = 2, got %g", m.Rho)
	}
	if m.LambdaEff >= 5 {
		t.Errorf("Admitted rate must stay below μ, got %g", m.LambdaEff)
	}

	// λ = μ gives a uniform distribution over 0..K.
	u, err := MM1K(3, 3, 4)
	if err != nil {
		t.Fatalf("MM1K failed: %v", err)
	}
	for n := 0; n <= 4; n++ {
		if !approxEqual(u.Pn(n), 0.2, 1e-12) {
			t.Errorf("P%d = %g, want 0.2", n, u.Pn(n))
		}
	}
}

func TestMM1N(t *testing.T) {
	// Two machines failing at rate 1, one repairer at rate 4.
	m, err := MM1N(1, 4, 2)
	if err != nil {
		t.Fatalf("MM1N failed: %v", err)
	}

	if !approxEqual(m.P0, 1/1.625, 1e-12) {
		t.Errorf("P0 = %.10f, want %.10f", m.P0, 1/1.625)
	}
	if !approxEqual(m.LambdaEff, 1*(2-m.L), 1e-12) {
		t.Errorf("λ_eff = %.10f, want λ(N-L) = %.10f", m.LambdaEff, 2-m.L)
	}
	if !approxEqual(m.W, 0.3, 1e-12) {
		t.Errorf("W = %.10f, want 0.3", m.W)
	}
	if !approxEqual(m.Rho, 0.5, 1e-12) {
		t.Errorf("ρ = Nλ/μ = 0.5, got %g", m.Rho)
	}
}

func TestMMSN_ManyServers(t *testing.T) {
	m, err := MMSN(0.1, 1, 3, 20)
	if err != nil {
		t.Fatalf("MMSN failed: %v", err)
	}
	var total float64
	for n := 0; n <= 20; n++ {
		total += m.Pn(n)
	}
	if !approxEqual(total, 1, 1e-12) {
		t.Errorf("Σ Pn = %.12f", total)
	}
	if !approxEqual(m.L, m.LambdaEff*m.W, 1e-12) {
		t.Errorf("Little's law: L = %.10f, λ_eff·W = %.10f", m.L, m.LambdaEff*m.W)
	}
}

func TestMG1(t *testing.T) {
	exp, err := MG1(5, 7, 1.0/49)
	if err != nil {
		t.Fatalf("MG1 failed: %v", err)
	}
	mm1, _ := MM1(5, 7)
	if !approxEqual(exp.W, mm1.W, 1e-12) || !approxEqual(exp.Lq, mm1.Lq, 1e-12) {
		t.Errorf("σ² = 1/μ² should match M/M/1: W=%g/%g Lq=%g/%g", exp.W, mm1.W, exp.Lq, mm1.Lq)
	}

	det, err := MG1(5, 7, 0)
	if err != nil {
		t.Fatalf("MG1 failed: %v", err)
	}
	rho := 5.0 / 7
	if !approxEqual(det.Lq, rho*rho/(2*(1-rho)), 1e-12) {
		t.Errorf("M/D/1 Lq = %.10f, want %.10f", det.Lq, rho*rho/(2*(1-rho)))
	}
	if det.HasDistribution() {
		t.Errorf("M/G/1 has no state distribution")
	}
	if _, _, ok := det.Tail(1); ok {
		t.Errorf("M/G/1 has no closed-form tail")
	}

	t.Logf("✓ M/D/1 halves the queue of M/M/1: Lq %.4f vs %.4f", det.Lq, mm1.Lq)
}

func TestSingleModels_Errors(t *testing.T) {
	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{"MM1 unstable", func() error { _, err := MM1(7, 7); return err }, ErrUnstable},
		{"MMS unstable", func() error { _, err := MMS(9, 4, 2); return err }, ErrUnstable},
		{"MG1 unstable", func() error { _, err := MG1(8, 7, 0); return err }, ErrUnstable},
		{"MG1 negative variance", func() error { _, err := MG1(1, 7, -1); return err }, ErrInvalidInput},
		{"MMSK capacity below servers", func() error { _, err := MMSK(1, 2, 3, 2); return err }, ErrInvalidInput},
		{"MMSK too many states", func() error { _, err := MMSK(1, 2, 1, MaxStates+1); return err }, ErrInvalidInput},
		{"MMSN no population", func() error { _, err := MMSN(1, 2, 1, 0); return err }, ErrInvalidInput},
		{"MM1 negative lambda", func() error { _, err := MM1(-1, 2); return err }, ErrInvalidInput},
		{"MM1K zero mu", func() error { _, err := MM1K(1, 0, 3); return err }, ErrInvalidInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}
