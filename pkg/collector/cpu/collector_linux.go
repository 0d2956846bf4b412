//go:build linux
// +build linux

package cpu

import (
	"fmt"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"

	"github.com/srodi/taskmgr/pkg/types"
)

// Collector reads per-process tick counters from procfs.
type Collector struct {
	fs             procfs.FS
	ticksPerSecond float64
	self           uint32
	users          map[uint32]string
}

// NewCollector opens the procfs mount described by cfg.
func NewCollector(cfg Config) (*Collector, error) {
	cfg = cfg.withDefaults()
	fs, err := procfs.NewFS(cfg.ProcRoot)
	if err != nil {
		return nil, fmt.Errorf("opening procfs at %s: %w", cfg.ProcRoot, err)
	}
	return &Collector{
		fs:             fs,
		ticksPerSecond: cfg.TicksPerSecond,
		self:           uint32(unix.Getuid()),
		users:          make(map[uint32]string),
	}, nil
}

// Close is a no-op; procfs keeps no open handles.
func (c *Collector) Close() error {
	return nil
}

// Snapshot returns utime/stime of every readable process. Processes that exit
// while the table is read are left out.
func (c *Collector) Snapshot() (types.TickSnapshot, error) {
	procs, err := c.fs.AllProcs()
	if err != nil {
		return types.TickSnapshot{}, fmt.Errorf("listing processes: %w", err)
	}

	ticks := make(map[int]types.Ticks, len(procs))
	for _, p := range procs {
		stat, err := p.Stat()
		if err != nil {
			continue
		}
		ticks[p.PID] = types.Ticks{User: uint64(stat.UTime), System: uint64(stat.STime)}
	}

	return types.TickSnapshot{TicksPerSecond: c.ticksPerSecond, Ticks: ticks}, nil
}

// Processes lists live processes as table rows with CPUPercent left at zero.
func (c *Collector) Processes(filter types.UserFilter) ([]types.Process, error) {
	rows, _, err := c.Table(filter)
	return rows, err
}

// Table lists live processes and the tick counters of exactly those rows from a
// single walk of procfs.
func (c *Collector) Table(filter types.UserFilter) ([]types.Process, types.TickSnapshot, error) {
	procs, err := c.fs.AllProcs()
	if err != nil {
		return nil, types.TickSnapshot{}, fmt.Errorf("listing processes: %w", err)
	}

	rows := make([]types.Process, 0, len(procs))
	ticks := make(map[int]types.Ticks, len(procs))
	for _, p := range procs {
		row, t, err := c.read(p)
		if err != nil {
			logger.L().Debug("skipping process", helpers.Int("pid", p.PID), helpers.Error(err))
			continue
		}
		if !keep(filter, row.RUID, c.self) {
			continue
		}
		rows = append(rows, row)
		ticks[row.PID] = t
	}
	return rows, types.TickSnapshot{TicksPerSecond: c.ticksPerSecond, Ticks: ticks}, nil
}

// Process returns the row for a single pid.
func (c *Collector) Process(pid int) (types.Process, error) {
	p, err := c.fs.Proc(pid)
	if err != nil {
		return types.Process{}, fmt.Errorf("pid %d: %w", pid, ErrProcessNotFound)
	}
	row, _, err := c.read(p)
	if err != nil {
		return types.Process{}, fmt.Errorf("pid %d: %w: %v", pid, ErrProcessNotFound, err)
	}
	return row, nil
}

// read builds the row for p and returns the utime/stime found in the same stat read.
func (c *Collector) read(p procfs.Proc) (types.Process, types.Ticks, error) {
	stat, err := p.Stat()
	if err != nil {
		return types.Process{}, types.Ticks{}, fmt.Errorf("reading stat: %w", err)
	}
	status, err := p.NewStatus()
	if err != nil {
		return types.Process{}, types.Ticks{}, fmt.Errorf("reading status: %w", err)
	}

	ruid := uint32(status.UIDs[0])
	name := stat.Comm
	if name == "" {
		name = fmt.Sprintf("pid-%d", p.PID)
	}
	row := types.Process{
		Name:     name,
		PID:      p.PID,
		RUID:     ruid,
		Username: usernameForUID(ruid, c.users),
	}
	return row, types.Ticks{User: uint64(stat.UTime), System: uint64(stat.STime)}, nil
}
