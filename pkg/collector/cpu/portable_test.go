package cpu

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srodi/taskmgr/pkg/types"
)

func TestPortableCollectorSeesItself(t *testing.T) {
	c, err := NewPortableCollector(Config{})
	require.NoError(t, err)
	defer c.Close()

	snap, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, float64(types.DefaultTicksPerSecond), snap.TicksPerSecond)
	_, ok := snap.Lookup(os.Getpid())
	assert.True(t, ok, "own pid missing from snapshot")

	self, err := c.Process(os.Getpid())
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), self.PID)
	assert.Equal(t, uint32(os.Getuid()), self.RUID)

	mine, err := c.Processes(types.Current)
	require.NoError(t, err)
	for _, p := range mine {
		assert.Equal(t, uint32(os.Getuid()), p.RUID)
	}
}

func TestPortableCollectorTableCoversRows(t *testing.T) {
	c, err := NewPortableCollector(Config{})
	require.NoError(t, err)

	rows, snap, err := c.Table(types.Current)
	require.NoError(t, err)
	assert.Equal(t, float64(types.DefaultTicksPerSecond), snap.TicksPerSecond)
	for pid := range snap.Ticks {
		found := false
		for _, row := range rows {
			found = found || row.PID == pid
		}
		assert.True(t, found, "ticks for pid %d without a row", pid)
	}
	_, ok := snap.Lookup(os.Getpid())
	assert.True(t, ok, "own pid missing from table ticks")
}

func TestPortableCollectorToTicks(t *testing.T) {
	c := &PortableCollector{ticksPerSecond: 100}
	assert.Equal(t, uint64(0), c.toTicks(-1))
	assert.Equal(t, uint64(150), c.toTicks(1.5))
	assert.Equal(t, uint64(1), c.toTicks(0.006))
}

func TestLogicalCPUs(t *testing.T) {
	assert.GreaterOrEqual(t, LogicalCPUs(), 1)
}
