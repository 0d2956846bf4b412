package cpu

import (
	"errors"
	"os/user"
	"strings"
	"testing"

	"github.com/srodi/taskmgr/pkg/types"
)

func TestUsernameForUIDLooksUpOnceAndCaches(t *testing.T) {
	t.Cleanup(func() { lookupUser = user.LookupId })

	calls := 0
	lookupUser = func(uid string) (*user.User, error) {
		calls++
		if uid == "1000" {
			return &user.User{Uid: uid, Username: "paul"}, nil
		}
		return nil, errors.New("boom")
	}

	cache := map[uint32]string{}
	name := usernameForUID(1000, cache)
	if name != "paul" {
		t.Fatalf("expected paul, got %q", name)
	}
	if calls != 1 {
		t.Fatalf("expected single lookup, got %d", calls)
	}

	reused := usernameForUID(1000, cache)
	if reused != "paul" || calls != 1 {
		t.Fatalf("expected cached paul, got %q with %d lookups", reused, calls)
	}

	fallback := usernameForUID(4242, cache)
	if fallback != unknownUser {
		t.Fatalf("expected fallback %q, got %q", unknownUser, fallback)
	}
	if cached := cache[4242]; cached != fallback {
		t.Fatalf("fallback name not cached: %q", cached)
	}
}

func TestKeepRespectsFilter(t *testing.T) {
	if !keep(types.All, 1, 2) {
		t.Fatalf("All should keep foreign uid")
	}
	if keep(types.Current, 1, 2) {
		t.Fatalf("Current should drop foreign uid")
	}
	if !keep(types.Current, 2, 2) {
		t.Fatalf("Current should keep own uid")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.ProcRoot != "/proc" || cfg.TicksPerSecond != types.DefaultTicksPerSecond {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	cfg = Config{ProcRoot: "/host/proc", TicksPerSecond: 250}.withDefaults()
	if cfg.ProcRoot != "/host/proc" || cfg.TicksPerSecond != 250 {
		t.Fatalf("explicit values overwritten: %+v", cfg)
	}
}

func TestFirstUID(t *testing.T) {
	uid, err := firstUID([]int32{1000, 1000, 1000, 1000}, nil)
	if err != nil || uid != 1000 {
		t.Fatalf("expected uid 1000, got %d (%v)", uid, err)
	}

	if _, err := firstUID([]int32{}, nil); err == nil || strings.Contains(err.Error(), "<nil>") {
		t.Fatalf("expected a readable error for an empty uid list, got %v", err)
	}

	denied := errors.New("permission denied")
	if _, err := firstUID[uint32](nil, denied); !errors.Is(err, denied) {
		t.Fatalf("expected wrapped %v, got %v", denied, err)
	}
}
