package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/srodi/taskmgr/pkg/types"
)

func TestHistoryPushEvictsOldest(t *testing.T) {
	h := newHistory(3)
	for i := 0; i < 5; i++ {
		h.Push(types.Sample{Ticks: types.Ticks{User: uint64(i)}, At: epoch.Add(time.Duration(i) * time.Second)})
	}

	assert.Equal(t, 3, h.Len())
	oldest, ok := h.Oldest()
	assert.True(t, ok)
	assert.Equal(t, uint64(2), oldest.User)
	newest, ok := h.Newest()
	assert.True(t, ok)
	assert.Equal(t, uint64(4), newest.User)
}

func TestHistoryPushAtCapacityIsAccepted(t *testing.T) {
	h := newHistory(2)
	h.Push(types.Sample{Ticks: types.Ticks{User: 1}, At: epoch})
	h.Push(types.Sample{Ticks: types.Ticks{User: 2}, At: epoch.Add(time.Second)})
	assert.Equal(t, 2, h.Len())

	h.Push(types.Sample{Ticks: types.Ticks{User: 3}, At: epoch.Add(2 * time.Second)})
	assert.Equal(t, 2, h.Len())
	oldest, _ := h.Oldest()
	newest, _ := h.Newest()
	assert.Equal(t, uint64(2), oldest.User)
	assert.Equal(t, uint64(3), newest.User)
	assert.Equal(t, epoch.Add(2*time.Second), newest.At)
}

func TestHistoryCapacityFloor(t *testing.T) {
	h := newHistory(1)
	for i := 0; i < 10; i++ {
		h.Push(types.Sample{})
	}
	assert.Equal(t, DefaultCapacity, h.Len())
}

func TestHistoryRegressed(t *testing.T) {
	h := newHistory(DefaultCapacity)
	assert.False(t, h.regressed(types.Ticks{}), "empty history cannot regress")

	h.Push(types.Sample{Ticks: types.Ticks{User: 10, System: 10}})
	assert.False(t, h.regressed(types.Ticks{User: 10, System: 10}))
	assert.False(t, h.regressed(types.Ticks{User: 11, System: 10}))
	assert.True(t, h.regressed(types.Ticks{User: 9, System: 30}))
	assert.True(t, h.regressed(types.Ticks{User: 30, System: 9}))
}
