package tracker

import (
	"github.com/oleiade/lane/v2"

	"github.com/srodi/taskmgr/pkg/types"
)

// DefaultCapacity is how many samples a PID keeps.
const DefaultCapacity = 5

// History is the rolling window of samples for one PID, oldest first.
type History struct {
	samples *lane.BoundDeque[types.Sample]
	missed  int // consecutive updates whose input did not include the pid
}

func newHistory(capacity int) *History {
	if capacity < 2 {
		capacity = DefaultCapacity
	}
	return &History{samples: lane.NewBoundDeque[types.Sample](uint(capacity))}
}

// Len returns the number of stored samples.
func (h *History) Len() int {
	return int(h.samples.Size())
}

// Push appends s, dropping the oldest sample when the window is full.
func (h *History) Push(s types.Sample) {
	if h.samples.Full() {
		h.samples.Shift()
	}
	h.samples.Append(s)
}

// Oldest returns the head of the window.
func (h *History) Oldest() (types.Sample, bool) {
	return h.samples.First()
}

// Newest returns the tail of the window.
func (h *History) Newest() (types.Sample, bool) {
	return h.samples.Last()
}

// regressed reports whether next cannot follow the newest stored sample, which
// happens when the kernel hands the pid to a new process.
func (h *History) regressed(next types.Ticks) bool {
	last, ok := h.Newest()
	if !ok {
		return false
	}
	return next.User < last.User || next.System < last.System
}
