package cpu

import (
	"errors"
	"fmt"
	"os/user"
	"strconv"

	"github.com/srodi/taskmgr/pkg/types"
)

// ErrProcessNotFound is returned when a pid does not exist (anymore).
var ErrProcessNotFound = errors.New("process not found")

const unknownUser = "unknown"

// Config selects where and how ticks are read.
type Config struct {
	ProcRoot       string  // procfs mount point, Linux only
	TicksPerSecond float64 // USER_HZ of the host
}

func (c Config) withDefaults() Config {
	if c.ProcRoot == "" {
		c.ProcRoot = "/proc"
	}
	if c.TicksPerSecond <= 0 {
		c.TicksPerSecond = types.DefaultTicksPerSecond
	}
	return c
}

// lookupUser allows tests to stub passwd lookups.
var lookupUser = user.LookupId

func usernameForUID(uid uint32, cache map[uint32]string) string {
	if name, ok := cache[uid]; ok {
		return name
	}
	u, err := lookupUser(strconv.FormatUint(uint64(uid), 10))
	if err != nil || u.Username == "" {
		cache[uid] = unknownUser
		return unknownUser
	}
	cache[uid] = u.Username
	return u.Username
}

func keep(filter types.UserFilter, uid, self uint32) bool {
	return filter == types.All || uid == self
}

// firstUID returns the real uid from a uid list as reported by the OS.
func firstUID[T int32 | uint32](uids []T, err error) (uint32, error) {
	if err != nil {
		return 0, fmt.Errorf("reading uids: %w", err)
	}
	if len(uids) == 0 {
		return 0, errors.New("reading uids: none reported")
	}
	return uint32(uids[0]), nil
}
