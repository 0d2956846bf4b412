package tracker

import "github.com/srodi/taskmgr/pkg/types"

// TickSource provides cumulative tick counters for every live PID.
type TickSource interface {
	Snapshot() (types.TickSnapshot, error)
}

// TickSourceFunc adapts a plain function to TickSource.
type TickSourceFunc func() (types.TickSnapshot, error)

// Snapshot calls f.
func (f TickSourceFunc) Snapshot() (types.TickSnapshot, error) {
	return f()
}

// StaticSource always returns the same counters.
type StaticSource types.TickSnapshot

// Snapshot returns the stored counters.
func (s StaticSource) Snapshot() (types.TickSnapshot, error) {
	return types.TickSnapshot(s), nil
}
