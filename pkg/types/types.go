package types

import (
	"fmt"
	"time"
)

// DefaultTopK controls how many processes we display when no limit is configured.
const DefaultTopK = 25

// DefaultTicksPerSecond is the USER_HZ value Linux exposes through /proc.
const DefaultTicksPerSecond = 100

// UserFilter selects whose processes are listed.
type UserFilter int

const (
	// Current lists only processes owned by the calling user.
	Current UserFilter = iota
	// All lists every process on the host.
	All
)

func (f UserFilter) String() string {
	if f == All {
		return "all"
	}
	return "current"
}

// Ticks holds cumulative CPU ticks since process start.
type Ticks struct {
	User   uint64
	System uint64
}

// Busy returns user plus kernel ticks.
func (t Ticks) Busy() uint64 {
	return t.User + t.System
}

// TickSnapshot is one enumeration of every live PID and its tick counters.
type TickSnapshot struct {
	TicksPerSecond float64
	Ticks          map[int]Ticks
}

// Lookup returns the counters for pid, or false if the process was not seen.
func (s TickSnapshot) Lookup(pid int) (Ticks, bool) {
	t, ok := s.Ticks[pid]
	return t, ok
}

// Sample is a single observation of one process.
type Sample struct {
	Ticks
	At time.Time
}

// Process is one row of the process table. CPUPercent is written by the tracker only.
type Process struct {
	Name       string
	PID        int
	RUID       uint32
	Username   string
	CPUPercent float64 // smoothed over the tracker window
}

// CPUPercentString renders the CPU column.
func (p Process) CPUPercentString() string {
	return fmt.Sprintf("%.1f%%", p.CPUPercent)
}
