// Package tracker turns cumulative per-process CPU ticks into a smoothed
// utilization percentage over a short trailing window.
//
// A Tracker is not safe for concurrent use. Callers poll NeedsUpdate and run
// Update serially from a single loop.
package tracker

import (
	"time"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"k8s.io/utils/clock"

	"github.com/srodi/taskmgr/pkg/types"
)

const (
	// DefaultInterval is the minimum time between two updates.
	DefaultInterval = time.Second
	// DefaultEvictAfter is how many consecutive updates a pid may be missing before its history is dropped.
	DefaultEvictAfter = 2
)

// Config tunes a Tracker. Zero values select the defaults.
type Config struct {
	Interval       time.Duration
	Capacity       int
	TicksPerSecond float64 // used when the snapshot does not carry a rate
	EvictAfter     int
	Clock          clock.PassiveClock
}

// Stats describes the bookkeeping of a Tracker.
type Stats struct {
	Tracked  int
	Updates  uint64
	Failures uint64
}

// Tracker owns the per-PID sample windows.
type Tracker struct {
	interval       time.Duration
	capacity       int
	ticksPerSecond float64
	evictAfter     int
	clock          clock.PassiveClock

	histories  map[int]*History
	lastUpdate time.Time

	updates  uint64
	failures uint64
}

// New returns a Tracker with no history. It reports NeedsUpdate immediately.
func New(cfg Config) *Tracker {
	t := &Tracker{
		interval:       cfg.Interval,
		capacity:       cfg.Capacity,
		ticksPerSecond: cfg.TicksPerSecond,
		evictAfter:     cfg.EvictAfter,
		clock:          cfg.Clock,
		histories:      make(map[int]*History),
	}
	if t.interval <= 0 {
		t.interval = DefaultInterval
	}
	if t.capacity < 2 {
		t.capacity = DefaultCapacity
	}
	if t.ticksPerSecond <= 0 {
		t.ticksPerSecond = types.DefaultTicksPerSecond
	}
	if t.evictAfter <= 0 {
		t.evictAfter = DefaultEvictAfter
	}
	if t.clock == nil {
		t.clock = clock.RealClock{}
	}
	return t
}

// NeedsUpdate reports whether the refresh interval has passed since the last successful Update.
func (t *Tracker) NeedsUpdate() bool {
	if t.lastUpdate.IsZero() {
		return true
	}
	return t.clock.Since(t.lastUpdate) >= t.interval
}

// Update samples source once and writes CPUPercent on every entry of processes
// that the source knows about. A failing source leaves all values untouched.
func (t *Tracker) Update(processes []types.Process, source TickSource) {
	snap, err := source.Snapshot()
	if err != nil {
		t.failures++
		logger.L().Warning("cpu tracker: reading tick counters failed, keeping previous values",
			helpers.Error(err),
			helpers.Int("processes", len(processes)))
		return
	}

	tps := snap.TicksPerSecond
	if tps <= 0 {
		tps = t.ticksPerSecond
	}

	now := t.clock.Now()
	seen := make(map[int]struct{}, len(processes))

	for i := range processes {
		p := &processes[i]
		seen[p.PID] = struct{}{}

		ticks, ok := snap.Lookup(p.PID)
		if !ok {
			continue
		}

		h, ok := t.histories[p.PID]
		if ok && h.regressed(ticks) {
			logger.L().Debug("cpu tracker: tick counters went backwards, restarting history",
				helpers.Int("pid", p.PID))
			ok = false
		}
		if !ok {
			h = newHistory(t.capacity)
			t.histories[p.PID] = h
		}

		h.Push(types.Sample{Ticks: ticks, At: now})
		p.CPUPercent = percent(h, tps)
	}

	t.collect(seen)

	t.updates++
	t.lastUpdate = now
}

// collect ages histories of pids missing from the latest input and drops the stale ones.
func (t *Tracker) collect(seen map[int]struct{}) {
	for pid, h := range t.histories {
		if _, ok := seen[pid]; ok {
			h.missed = 0
			continue
		}
		h.missed++
		if h.missed >= t.evictAfter {
			delete(t.histories, pid)
		}
	}
}

// percent computes busy time between the oldest and newest sample relative to
// one core's worth of wall-clock time. Values above 100 are kept as is.
func percent(h *History, ticksPerSecond float64) float64 {
	if h.Len() < 2 {
		return 0
	}
	oldest, _ := h.Oldest()
	newest, _ := h.Newest()

	elapsed := newest.At.Sub(oldest.At).Seconds()
	if elapsed <= 0 || newest.Busy() < oldest.Busy() {
		return 0
	}

	busy := float64(newest.Busy() - oldest.Busy())
	return 100 * busy / (ticksPerSecond * elapsed)
}

// HistoryLen returns how many samples are stored for pid.
func (t *Tracker) HistoryLen(pid int) int {
	h, ok := t.histories[pid]
	if !ok {
		return 0
	}
	return h.Len()
}

// Stats returns counters describing the tracker state.
func (t *Tracker) Stats() Stats {
	return Stats{
		Tracked:  len(t.histories),
		Updates:  t.updates,
		Failures: t.failures,
	}
}
