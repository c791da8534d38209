package queuelaw

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// DefaultPrecision is the number of fractional digits kept by Result.Table.
const DefaultPrecision = 6

// MaxPrecision bounds the precision accepted by Round and Result.Table.
const MaxPrecision = 12

// Variant identifies one of the four priority-engine formulas. The values are
// the model codes used by the catalog and the HTTP API.
type Variant string

const (
	PreemptiveSingle    Variant = "MCPCI"  // Preemptive, s = 1, ≤ 4 classes
	PreemptiveMulti     Variant = "MCPCIS" // Preemptive, s ≥ 1, ≤ 4 classes
	NonPreemptiveMulti  Variant = "MCPSI"  // Non-preemptive, s ≥ 1, any K
	NonPreemptiveSingle Variant = "MCPSI1" // Non-preemptive, s = 1, 3 classes
)

// Discipline reports whether the variant interrupts service.
func (v Variant) Discipline() Discipline {
	switch v {
	case PreemptiveSingle, PreemptiveMulti:
		return Preemptive
	default:
		return NonPreemptive
	}
}

// Solver is the signature shared by the four variants.
type Solver func(PrioritySpec) (Result, error)

var solvers = map[Variant]Solver{
	PreemptiveSingle:    PreemptiveSingleServer,
	PreemptiveMulti:     PreemptiveMultiServer,
	NonPreemptiveMulti:  NonPreemptiveMultiServer,
	NonPreemptiveSingle: NonPreemptiveSingleServer,
}

// Solver returns the function that evaluates the variant.
func (v Variant) Solver() (Solver, bool) {
	fn, ok := solvers[v]
	return fn, ok
}

// Select picks the variant for a discipline, server count and class count.
//
//	preemptive,     s = 1            → MCPCI
//	preemptive,     s > 1            → MCPCIS
//	non-preemptive, s = 1, K = 3     → MCPSI1
//	non-preemptive, otherwise        → MCPSI
func Select(d Discipline, servers, classes int) (Variant, error) {
	if servers < 1 {
		return "", invalid("servers", "need at least one server, got %d", servers)
	}
	if classes < 1 {
		return "", invalid("rates", "at least one class is required")
	}

	switch d {
	case Preemptive:
		if classes > MaxPreemptiveClasses {
			return "", invalid("rates", "at most %d classes supported, got %d", MaxPreemptiveClasses, classes)
		}
		if servers == 1 {
			return PreemptiveSingle, nil
		}
		return PreemptiveMulti, nil
	case NonPreemptive:
		if servers == 1 && classes == NonPreemptiveSingleServerClasses {
			return NonPreemptiveSingle, nil
		}
		return NonPreemptiveMulti, nil
	default:
		return "", invalid("discipline", "unknown discipline %q", d)
	}
}

// Solve selects the variant for spec and evaluates it.
func Solve(spec PrioritySpec, d Discipline) (Result, error) {
	v, err := Select(d, spec.Servers, len(spec.Rates))
	if err != nil {
		return Result{}, err
	}
	solve, _ := v.Solver()
	res, err := solve(spec)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", v, err)
	}
	return res, nil
}

// SystemKey is the Table entry holding the aggregate metrics.
const SystemKey = "System"

// Table is the presentation form of a Result: "Class 1".."Class K" for the
// present classes, plus SystemKey.
type Table map[string]map[string]float64

// ClassKey returns the table key of class k.
func ClassKey(k int) string {
	return "Class " + strconv.Itoa(k)
}

// Table rounds the result to precision fractional digits. Classes with
// λᵢ = 0 are omitted.
func (r Result) Table(precision int) Table {
	t := make(Table, len(r.Classes)+1)
	for _, c := range r.Classes {
		if !c.Present {
			continue
		}
		t[ClassKey(c.Class)] = map[string]float64{
			"W":  Round(c.W, precision),
			"Wq": Round(c.Wq, precision),
			"L":  Round(c.L, precision),
			"Lq": Round(c.Lq, precision),
		}
	}
	t[SystemKey] = map[string]float64{
		"Rho": Round(r.System.Rho, precision),
		"W":   Round(r.System.W, precision),
		"Wq":  Round(r.System.Wq, precision),
		"L":   Round(r.System.L, precision),
		"Lq":  Round(r.System.Lq, precision),
	}
	return t
}

// Keys returns the table keys with classes in priority order and SystemKey
// last.
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		if k != SystemKey {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return classIndex(keys[i]) < classIndex(keys[j])
	})
	if _, ok := t[SystemKey]; ok {
		keys = append(keys, SystemKey)
	}
	return keys
}

func classIndex(key string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(key, "Class "))
	if err != nil {
		return math.MaxInt
	}
	return n
}

// Round rounds x half away from zero to precision fractional digits.
// Infinities and NaN pass through unchanged; precision is clamped to
// [0, MaxPrecision].
func Round(x float64, precision int) float64 {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return x
	}
	precision = min(max(precision, 0), MaxPrecision)
	scale := math.Pow10(precision)
	return math.Round(x*scale) / scale
}
