package queuelaw

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestSelect(t *testing.T) {
	cases := []struct {
		discipline Discipline
		servers    int
		classes    int
		want       Variant
	}{
		{Preemptive, 1, 1, PreemptiveSingle},
		{Preemptive, 1, 4, PreemptiveSingle},
		{Preemptive, 3, 2, PreemptiveMulti},
		{NonPreemptive, 1, 3, NonPreemptiveSingle},
		{NonPreemptive, 1, 2, NonPreemptiveMulti},
		{NonPreemptive, 4, 3, NonPreemptiveMulti},
		{NonPreemptive, 2, 12, NonPreemptiveMulti},
	}

	for _, tc := range cases {
		got, err := Select(tc.discipline, tc.servers, tc.classes)
		if err != nil {
			t.Errorf("Select(%s, %d, %d) failed: %v", tc.discipline, tc.servers, tc.classes, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Select(%s, %d, %d) = %s, want %s", tc.discipline, tc.servers, tc.classes, got, tc.want)
		}
		if got.Discipline() != tc.discipline {
			t.Errorf("%s reports discipline %s, want %s", got, got.Discipline(), tc.discipline)
		}
	}

	for _, bad := range []struct {
		d       Discipline
		s, k    int
		comment string
	}{
		{Preemptive, 1, 5, "too many preemptive classes"},
		{NonPreemptive, 0, 3, "no servers"},
		{Preemptive, 2, 0, "no classes"},
		{"fifo", 1, 1, "unknown discipline"},
	} {
		if _, err := Select(bad.d, bad.s, bad.k); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", bad.comment, err)
		}
	}
}

func TestSolve_WrapsVariant(t *testing.T) {
	_, err := Solve(NewPrioritySpec(4, 2, 5, 3), Preemptive)

	var unstable *InstabilityError
	if !errors.As(err, &unstable) {
		t.Fatalf("Expected *InstabilityError, got %v", err)
	}
	if unstable.Rho != 1 {
		t.Errorf("Expected ρ = 1, got %g", unstable.Rho)
	}
	if got := err.Error(); len(got) < len(PreemptiveMulti) || got[:len(PreemptiveMulti)] != string(PreemptiveMulti) {
		t.Errorf("Expected error prefixed with %s, got %q", PreemptiveMulti, got)
	}
}

func TestSolve_EveryVariantUnstable(t *testing.T) {
	cases := []struct {
		spec PrioritySpec
		d    Discipline
	}{
		{NewPrioritySpec(10, 1, 6, 4), Preemptive},
		{NewPrioritySpec(3, 3, 5, 5), Preemptive},
		{NewPrioritySpec(3, 3, 5, 5), NonPreemptive},
		{NewPrioritySpec(10, 1, 5, 3, 4), NonPreemptive},
	}

	for _, tc := range cases {
		v, _ := Select(tc.d, tc.spec.Servers, len(tc.spec.Rates))
		_, err := Solve(tc.spec, tc.d)
		if !errors.Is(err, ErrUnstable) {
			t.Errorf("%s: expected ErrUnstable, got %v", v, err)
			continue
		}
		t.Logf("✓ %s rejects ρ = %.2f", v, tc.spec.Rho())
	}
}

func TestSolve_Idempotent(t *testing.T) {
	spec := NewPrioritySpec(6, 2, 2, 3, 4)

	for _, d := range []Discipline{Preemptive, NonPreemptive} {
		first, err := Solve(spec, d)
		if err != nil {
			t.Fatalf("%s: Solve failed: %v", d, err)
		}
		second, err := Solve(spec, d)
		if err != nil {
			t.Fatalf("%s: Solve failed: %v", d, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("%s: repeated Solve differs", d)
		}
		if !reflect.DeepEqual(first.Table(4), second.Table(4)) {
			t.Errorf("%s: repeated Table differs", d)
		}
	}
}

func TestResultTable(t *testing.T) {
	spec := NewPrioritySpec(15, 1, 4, 0, 3)

	res, err := Solve(spec, Preemptive)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	table := res.Table(4)
	keys := table.Keys()
	want := []string{"Class 1", "Class 3", SystemKey}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("Expected keys %v, got %v", want, keys)
	}

	for _, k := range keys[:2] {
		for _, field := range []string{"W", "Wq", "L", "Lq"} {
			if _, ok := table[k][field]; !ok {
				t.Errorf("%s missing %s", k, field)
			}
		}
	}
	for _, field := range []string{"Rho", "W", "Wq", "L", "Lq"} {
		if _, ok := table[SystemKey][field]; !ok {
			t.Errorf("System missing %s", field)
		}
	}

	// W₁ = 1/11 = 0.090909...
	if got := table["Class 1"]["W"]; got != 0.0909 {
		t.Errorf("Expected rounded W₁ = 0.0909, got %v", got)
	}
	if got := table[SystemKey]["Rho"]; got != 0.4667 {
		t.Errorf("Expected rounded ρ = 0.4667, got %v", got)
	}
}

func TestTableKeys_DoubleDigitClasses(t *testing.T) {
	rates := make([]float64, 12)
	for i := range rates {
		rates[i] = 0.5
	}
	res, err := Solve(NewPrioritySpec(2, 4, rates...), NonPreemptive)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	keys := res.Table(DefaultPrecision).Keys()
	if keys[9] != "Class 10" || keys[11] != "Class 12" || keys[12] != SystemKey {
		t.Errorf("Keys out of priority order: %v", keys)
	}
}

func TestRound(t *testing.T) {
	cases := []struct {
		x         float64
		precision int
		want      float64
	}{
		{1.23456789, 4, 1.2346},
		{1.23456789, 0, 1},
		{-2.5, 0, -3},
		{0.125, 2, 0.13},
		{1.23456789, -3, 1},
		{1.0 / 3, 40, math.Round(1.0/3*1e12) / 1e12},
	}
	for _, tc := range cases {
		if got := Round(tc.x, tc.precision); got != tc.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tc.x, tc.precision, got, tc.want)
		}
	}

	if !math.IsInf(Round(math.Inf(1), 6), 1) {
		t.Errorf("Round should pass +Inf through")
	}
	if !math.IsNaN(Round(math.NaN(), 6)) {
		t.Errorf("Round should pass NaN through")
	}
}
