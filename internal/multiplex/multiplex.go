// Package multiplex implements the classifier multiplexer: a weighted
// round-robin scheduler over N heterogeneous AI backend workers, with
// cooldown-based exclusion, lifetime success-rate filtering, and
// periodic metrics dumps across a fleet behind one Backend interface.
package multiplex

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"foldersort/internal/aiclient"
	"foldersort/internal/categories"
	"foldersort/internal/logging"
)

// ErrNoWorkerAvailable is returned when every worker is in cooldown.
var ErrNoWorkerAvailable = errors.New("multiplex: every worker is in cooldown")

const (
	minSuccessRate      = 0.4
	defaultWeight       = 5.0
	minWeight           = 0.1
	maxWeight           = 10.0
	dumpRequestInterval = 1000
)

// workerStats tracks the lifetime and rolling counters for one worker.
type workerStats struct {
	requests            int64
	successes           int64
	failures            int64
	latencySumMillis    int64
	firstSeen, lastSeen time.Time
	consecutiveFailures int
	cooldownUntil       time.Time
	inFlight            int64
	currentWeight       float64
}

func (s *workerStats) successRate() float64 {
	if s.requests == 0 {
		return 1
	}
	return float64(s.successes) / float64(s.requests)
}

func (s *workerStats) weight() float64 {
	if s.successes == 0 {
		return defaultWeight
	}
	avgLatency := float64(s.latencySumMillis) / float64(s.successes)
	w := 1000 / (avgLatency + 1)
	return math.Min(maxWeight, math.Max(minWeight, w))
}

// worker pairs a backend with its scheduling state.
type worker struct {
	backend aiclient.Backend
	stats   workerStats
}

// Multiplexer schedules classification and folder-advice calls across a
// fixed set of workers.
type Multiplexer struct {
	mu               sync.Mutex
	workers          []*worker
	failureCooldown  time.Duration
	dumpInterval     time.Duration
	lastDump         time.Time
	requestsSinceDump int
}

// New returns a Multiplexer over backends. failureCooldown is the base
// unit scaled by min(consecutive_failures, 5) on each failure;
// dumpInterval is the wall-clock fallback trigger for a metrics dump
// (the request-count trigger is fixed at 1000).
func New(backends []aiclient.Backend, failureCooldown, dumpInterval time.Duration) *Multiplexer {
	m := &Multiplexer{failureCooldown: failureCooldown, dumpInterval: dumpInterval, lastDump: time.Now()}
	for _, b := range backends {
		m.workers = append(m.workers, &worker{backend: b})
	}
	return m
}

// Close propagates Close to every worker and returns the first error
// encountered, if any, having still attempted every worker.
func (m *Multiplexer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var first error
	for _, w := range m.workers {
		if err := w.backend.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Classify selects a worker and runs a per-file classification call,
// recording success/failure/latency against the chosen worker.
func (m *Multiplexer) Classify(ctx context.Context, req aiclient.ClassifyRequest, catalog *categories.Catalog) aiclient.ClassifyResponse {
	w, err := m.selectWorker()
	if err != nil {
		return aiclient.ClassifyResponse{
			Category: categories.Unknown,
			Metrics:  aiclient.ClassifyMetrics{Err: err},
		}
	}

	m.beginCall(w)
	start := time.Now()
	resp := w.backend.Classify(ctx, req, catalog)
	m.endCall(w, resp.Metrics.Err == nil, time.Since(start))
	return resp
}

// AdviseFolderAction selects a worker and runs a folder-advice call,
// falling back to the rule hint (or DISAGGREGATE) on any selection or
// backend failure.
func (m *Multiplexer) AdviseFolderAction(ctx context.Context, req aiclient.FolderActionRequest) aiclient.FolderActionResponse {
	w, err := m.selectWorker()
	if err != nil {
		return aiclient.FolderActionResponse{Delegate: true, Hint: fallbackHint(req.RuleHint), Reason: "multiplex:no_worker"}
	}

	m.beginCall(w)
	start := time.Now()
	resp := w.backend.AdviseFolderAction(ctx, req)
	success := resp.Delegate || resp.Action != ""
	m.endCall(w, success, time.Since(start))
	return resp
}

func fallbackHint(hint string) string {
	if hint == "" {
		return "disaggregate"
	}
	return hint
}

func (m *Multiplexer) beginCall(w *worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.stats.inFlight++
}

func (m *Multiplexer) endCall(w *worker, success bool, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w.stats.inFlight--
	w.stats.requests++
	now := time.Now()
	if w.stats.firstSeen.IsZero() {
		w.stats.firstSeen = now
	}
	w.stats.lastSeen = now

	if success {
		w.stats.successes++
		w.stats.latencySumMillis += latency.Milliseconds()
		w.stats.consecutiveFailures = 0
	} else {
		w.stats.failures++
		w.stats.consecutiveFailures++
		backoff := m.failureCooldown * time.Duration(min(w.stats.consecutiveFailures, 5))
		w.stats.cooldownUntil = now.Add(backoff)
		logging.Get(logging.CategoryMultiplex).Warn("worker %s entering cooldown for %v", w.backend.DisplayName(), backoff)
	}

	m.requestsSinceDump++
	if m.requestsSinceDump >= dumpRequestInterval || (m.dumpInterval > 0 && now.Sub(m.lastDump) >= m.dumpInterval) {
		m.dumpLocked(now)
	}
}

// selectWorker implements the filter-then-weighted-round-robin
// selection: qualify, filter by cooldown, then pick by smooth weight.
func (m *Multiplexer) selectWorker() (*worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var available []*worker
	for _, w := range m.workers {
		if w.stats.cooldownUntil.After(now) {
			continue
		}
		available = append(available, w)
	}
	if len(available) == 0 {
		return nil, ErrNoWorkerAvailable
	}

	var primaries, qualified []*worker
	for _, w := range available {
		if w.stats.requests == 0 {
			primaries = append(primaries, w)
		}
		if w.stats.successRate() >= minSuccessRate {
			qualified = append(qualified, w)
		}
	}

	pool := primaries
	if len(pool) == 0 {
		pool = qualified
	}
	if len(pool) == 0 {
		return nil, ErrNoWorkerAvailable
	}

	for _, w := range pool {
		if w.stats.requests == 0 && w.stats.inFlight == 0 {
			return w, nil
		}
	}

	return smoothWeightedRoundRobin(pool), nil
}

// smoothWeightedRoundRobin runs one selection step of the classic
// smooth-WRR algorithm: every candidate's current_weight accumulates its
// static weight, the highest current_weight wins, and the winner's
// current_weight is reduced by the pool's total weight.
func smoothWeightedRoundRobin(pool []*worker) *worker {
	var total float64
	var best *worker
	for _, w := range pool {
		weight := w.stats.weight()
		w.stats.currentWeight += weight
		total += weight
		if best == nil || w.stats.currentWeight > best.stats.currentWeight {
			best = w
		}
	}
	best.stats.currentWeight -= total
	return best
}

// WorkerSnapshot is a point-in-time, read-only view of one worker's
// stats, used by the metrics dump and by reporting.
type WorkerSnapshot struct {
	DisplayName string
	Requests    int64
	Successes   int64
	Failures    int64
	AvgLatency  time.Duration
	FirstSeen   time.Time
	LastSeen    time.Time
}

// Snapshot returns the current stats for every worker.
func (m *Multiplexer) Snapshot() []WorkerSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]WorkerSnapshot, 0, len(m.workers))
	for _, w := range m.workers {
		var avg time.Duration
		if w.stats.successes > 0 {
			avg = time.Duration(w.stats.latencySumMillis/w.stats.successes) * time.Millisecond
		}
		out = append(out, WorkerSnapshot{
			DisplayName: w.backend.DisplayName(),
			Requests:    w.stats.requests,
			Successes:   w.stats.successes,
			Failures:    w.stats.failures,
			AvgLatency:  avg,
			FirstSeen:   w.stats.firstSeen,
			LastSeen:    w.stats.lastSeen,
		})
	}
	return out
}

// dumpLocked logs a summary line per worker and resets the rolling
// request counter. Lifetime counters (used for success-rate filtering)
// are never reset. Caller must hold m.mu.
func (m *Multiplexer) dumpLocked(now time.Time) {
	for _, w := range m.workers {
		logging.Get(logging.CategoryMultiplex).Info(
			"worker %s: requests=%d successes=%d failures=%d",
			w.backend.DisplayName(), w.stats.requests, w.stats.successes, w.stats.failures,
		)
	}
	m.requestsSinceDump = 0
	m.lastDump = now
}
