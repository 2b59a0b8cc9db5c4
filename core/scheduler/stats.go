package scheduler

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Stats holds cumulative counters of a Scheduler.
type Stats struct {
	Routes           int           `json:"routes"`
	Events           int           `json:"events"`
	ConflictsAvoided int           `json:"conflicts_avoided"`
	SkippedEdges     int           `json:"skipped_edges"`
	Pruned           int           `json:"pruned"`
	ActiveIntervals  int           `json:"active_intervals"`
	LastLatency      time.Duration `json:"last_latency"`
	MeanLatency      time.Duration `json:"mean_latency"`
	P95Latency       time.Duration `json:"p95_latency"`
}

// latencyWindow keeps the most recent scheduling latencies in a ring.
type latencyWindow struct {
	samples []float64
	next    int
	full    bool
}

func newLatencyWindow(size int) *latencyWindow {
	if size <= 0 {
		size = DefaultLatencyWindow
	}
	return &latencyWindow{samples: make([]float64, size)}
}

func (w *latencyWindow) add(d time.Duration) {
	w.samples[w.next] = float64(d)
	w.next++
	if w.next == len(w.samples) {
		w.next = 0
		w.full = true
	}
}

func (w *latencyWindow) reset() {
	w.next = 0
	w.full = false
}

// summary returns the mean and 95th percentile of the window.
func (w *latencyWindow) summary() (mean, p95 time.Duration) {
	n := w.next
	if w.full {
		n = len(w.samples)
	}
	if n == 0 {
		return 0, 0
	}
	xs := make([]float64, n)
	copy(xs, w.samples[:n])
	sort.Float64s(xs)
	return time.Duration(stat.Mean(xs, nil)), time.Duration(stat.Quantile(0.95, stat.Empirical, xs, nil))
}
