package cpu

import (
	"fmt"
	"os"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	gocpu "github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/srodi/taskmgr/pkg/types"
)

// PortableCollector reads process CPU times through gopsutil. gopsutil reports
// seconds, which are converted back to ticks at the configured rate.
type PortableCollector struct {
	ticksPerSecond float64
	self           uint32
	users          map[uint32]string
}

// NewPortableCollector returns a collector that works wherever gopsutil does.
func NewPortableCollector(cfg Config) (*PortableCollector, error) {
	cfg = cfg.withDefaults()
	return &PortableCollector{
		ticksPerSecond: cfg.TicksPerSecond,
		self:           uint32(os.Getuid()),
		users:          make(map[uint32]string),
	}, nil
}

// Close is a no-op.
func (c *PortableCollector) Close() error {
	return nil
}

// Snapshot returns user/system ticks for every process gopsutil can read.
func (c *PortableCollector) Snapshot() (types.TickSnapshot, error) {
	procs, err := process.Processes()
	if err != nil {
		return types.TickSnapshot{}, fmt.Errorf("listing processes: %w", err)
	}

	ticks := make(map[int]types.Ticks, len(procs))
	for _, p := range procs {
		times, err := p.Times()
		if err != nil {
			continue
		}
		ticks[int(p.Pid)] = types.Ticks{
			User:   c.toTicks(times.User),
			System: c.toTicks(times.System),
		}
	}

	return types.TickSnapshot{TicksPerSecond: c.ticksPerSecond, Ticks: ticks}, nil
}

// Processes lists live processes as table rows.
func (c *PortableCollector) Processes(filter types.UserFilter) ([]types.Process, error) {
	rows, _, err := c.Table(filter)
	return rows, err
}

// Table lists live processes together with their tick counters, read in the
// same pass so both describe the same instant.
func (c *PortableCollector) Table(filter types.UserFilter) ([]types.Process, types.TickSnapshot, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, types.TickSnapshot{}, fmt.Errorf("listing processes: %w", err)
	}

	rows := make([]types.Process, 0, len(procs))
	ticks := make(map[int]types.Ticks, len(procs))
	for _, p := range procs {
		row, err := c.describe(p)
		if err != nil {
			logger.L().Debug("skipping process", helpers.Int("pid", int(p.Pid)), helpers.Error(err))
			continue
		}
		if !keep(filter, row.RUID, c.self) {
			continue
		}
		rows = append(rows, row)
		if times, err := p.Times(); err == nil {
			ticks[row.PID] = types.Ticks{User: c.toTicks(times.User), System: c.toTicks(times.System)}
		}
	}
	return rows, types.TickSnapshot{TicksPerSecond: c.ticksPerSecond, Ticks: ticks}, nil
}

// Process returns the row for a single pid.
func (c *PortableCollector) Process(pid int) (types.Process, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return types.Process{}, fmt.Errorf("pid %d: %w", pid, ErrProcessNotFound)
	}
	row, err := c.describe(p)
	if err != nil {
		return types.Process{}, fmt.Errorf("pid %d: %w: %v", pid, ErrProcessNotFound, err)
	}
	return row, nil
}

func (c *PortableCollector) describe(p *process.Process) (types.Process, error) {
	name, err := p.Name()
	if err != nil {
		return types.Process{}, fmt.Errorf("reading name: %w", err)
	}
	uids, err := p.Uids()
	ruid, err := firstUID(uids, err)
	if err != nil {
		return types.Process{}, err
	}

	if name == "" {
		name = fmt.Sprintf("pid-%d", p.Pid)
	}
	return types.Process{
		Name:     name,
		PID:      int(p.Pid),
		RUID:     ruid,
		Username: usernameForUID(ruid, c.users),
	}, nil
}

func (c *PortableCollector) toTicks(seconds float64) uint64 {
	if seconds <= 0 {
		return 0
	}
	return uint64(seconds*c.ticksPerSecond + 0.5)
}

// LogicalCPUs returns the number of logical cores, or 1 when it cannot be determined.
func LogicalCPUs() int {
	n, err := gocpu.Counts(true)
	if err != nil || n <= 0 {
		return 1
	}
	return n
}
