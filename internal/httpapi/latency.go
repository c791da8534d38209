package httpapi

import (
	"sort"
	"sync"
	"time"
)

// defaultLatencySamples is the window used when newLatencyWindow gets n ≤ 0.
const defaultLatencySamples = 1024

// latencyWindow keeps the most recent request latencies in a ring buffer and
// answers percentile queries over them.
//
// The mean of a saturated server is dominated by a few slow requests, so the
// stats endpoint reports the tail next to it:
//
//	w := newLatencyWindow(1000)
//	w.Record(5 * time.Millisecond)
//	if w.TailRatio() > 10 {
//	    // P99 is an order of magnitude above the median
//	}
type latencyWindow struct {
	mu      sync.Mutex
	samples []time.Duration
	next    int   // Next write position
	total   int64 // Samples recorded since creation
}

func newLatencyWindow(n int) *latencyWindow {
	if n <= 0 {
		n = defaultLatencySamples
	}
	return &latencyWindow{samples: make([]time.Duration, n)}
}

// Record adds one sample, overwriting the oldest once the window is full.
func (w *latencyWindow) Record(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.samples[w.next] = d
	w.next = (w.next + 1) % len(w.samples)
	w.total++
}

// filled is the number of valid samples. Callers hold mu.
func (w *latencyWindow) filled() int {
	if w.total < int64(len(w.samples)) {
		return int(w.total)
	}
	return len(w.samples)
}

// sorted returns a sorted copy of the valid samples.
func (w *latencyWindow) sorted() []time.Duration {
	w.mu.Lock()
	n := w.filled()
	out := make([]time.Duration, n)
	copy(out, w.samples[:n])
	w.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Percentile returns the p-quantile (0 ≤ p ≤ 1) by nearest rank below, or 0
// without samples.
func (w *latencyWindow) Percentile(p float64) time.Duration {
	return quantile(w.sorted(), p)
}

func quantile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	i := int(float64(len(sorted)-1) * p)
	i = min(max(i, 0), len(sorted)-1)
	return sorted[i]
}

// Mean returns the average of the window.
func (w *latencyWindow) Mean() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := w.filled()
	if n == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range w.samples[:n] {
		sum += d
	}
	return sum / time.Duration(n)
}

// TailRatio returns P99/P50, or 1 without samples.
func (w *latencyWindow) TailRatio() float64 {
	s := w.sorted()
	return tailRatio(quantile(s, 0.50), quantile(s, 0.99))
}

func tailRatio(p50, p99 time.Duration) float64 {
	if p50 == 0 {
		return 1
	}
	return float64(p99) / float64(p50)
}

// latencySummary is the JSON view of a latencyWindow.
type latencySummary struct {
	Samples   int64   `json:"samples"`
	MeanMs    float64 `json:"mean_ms"`
	P50Ms     float64 `json:"p50_ms"`
	P99Ms     float64 `json:"p99_ms"`
	P999Ms    float64 `json:"p999_ms"`
	TailRatio float64 `json:"tail_ratio"`
}

// Summary snapshots the window for the stats endpoint.
func (w *latencyWindow) Summary() latencySummary {
	w.mu.Lock()
	total := w.total
	w.mu.Unlock()

	return latencySummary{
		Samples:   total,
		MeanMs:    ms(w.Mean()),
		P50Ms:     ms(w.Percentile(0.50)),
		P99Ms:     ms(w.Percentile(0.99)),
		P999Ms:    ms(w.Percentile(0.999)),
		TailRatio: w.TailRatio(),
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
