package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srodi/taskmgr/pkg/types"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, defaultInterval, cfg.Interval)
	assert.Equal(t, time.Second, cfg.Refresh)
	assert.Equal(t, types.DefaultTopK, cfg.TopK)
	assert.True(t, cfg.HideKernel)
	assert.Equal(t, types.Current, cfg.filter())
	assert.Equal(t, float64(types.DefaultTicksPerSecond), cfg.TicksPerSecond)
}

func TestParseConfigFlags(t *testing.T) {
	cfg, err := parseConfig([]string{"-all", "-topk", "5", "-refresh", "2s", "-filter", " fire ", "-log-level", "DEBUG", "-pid", "42"})
	require.NoError(t, err)

	assert.Equal(t, types.All, cfg.filter())
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 2*time.Second, cfg.Refresh)
	assert.Equal(t, "fire", cfg.NameFilter)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 42, cfg.PID)
}

func TestParseConfigNormalizesInvalidValues(t *testing.T) {
	cfg, err := parseConfig([]string{"-interval", "0s", "-refresh", "-1s", "-topk", "-3", "-ticks-per-second", "0"})
	require.NoError(t, err)

	def := defaultConfig()
	assert.Equal(t, def.Interval, cfg.Interval)
	assert.Equal(t, def.Refresh, cfg.Refresh)
	assert.Equal(t, def.TopK, cfg.TopK)
	assert.Equal(t, def.TicksPerSecond, cfg.TicksPerSecond)
}

func TestParseConfigFileWithFlagOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskmgr.yaml")
	data := []byte("refresh: 3s\ntopk: 7\nall_users: true\nticks_per_second: 250\nmetrics_addr: \":9102\"\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := parseConfig([]string{"-config", path, "-topk", "9"})
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Refresh)
	assert.Equal(t, 9, cfg.TopK, "flag wins over file")
	assert.True(t, cfg.AllUsers)
	assert.Equal(t, 250.0, cfg.TicksPerSecond)
	assert.Equal(t, ":9102", cfg.MetricsAddr)

	cfg, err = parseConfig([]string{"--config=" + path})
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.TopK)
}

func TestParseConfigFileErrors(t *testing.T) {
	_, err := parseConfig([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("topk: [not, a, number]\n"), 0o644))
	_, err = parseConfig([]string{"-config", path})
	assert.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{nil, ""},
		{[]string{"-config", "a.yaml"}, "a.yaml"},
		{[]string{"--config", "b.yaml"}, "b.yaml"},
		{[]string{"-topk", "3", "-config=c.yaml"}, "c.yaml"},
		{[]string{"config", "d.yaml"}, ""},
		{[]string{"-config"}, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, configPath(tc.args), "args %v", tc.args)
	}
}
