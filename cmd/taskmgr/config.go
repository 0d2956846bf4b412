package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/srodi/taskmgr/pkg/tracker"
	"github.com/srodi/taskmgr/pkg/types"
)

const defaultInterval = 250 * time.Millisecond

type runConfig struct {
	Interval       time.Duration `yaml:"interval"`
	Refresh        time.Duration `yaml:"refresh"`
	TopK           int           `yaml:"topk"`
	AllUsers       bool          `yaml:"all_users"`
	HideKernel     bool          `yaml:"hide_kernel"`
	NameFilter     string        `yaml:"filter"`
	UserFilter     string        `yaml:"user"`
	TicksPerSecond float64       `yaml:"ticks_per_second"`
	ProcRoot       string        `yaml:"proc_root"`
	LogLevel       string        `yaml:"log_level"`
	LogFile        string        `yaml:"log_file"`
	MetricsAddr    string        `yaml:"metrics_addr"`

	Once bool `yaml:"-"`
	PID  int  `yaml:"-"`
}

func defaultConfig() runConfig {
	return runConfig{
		Interval:       defaultInterval,
		Refresh:        tracker.DefaultInterval,
		TopK:           types.DefaultTopK,
		HideKernel:     true,
		TicksPerSecond: types.DefaultTicksPerSecond,
		ProcRoot:       "/proc",
		LogLevel:       "info",
	}
}

func (cfg runConfig) filter() types.UserFilter {
	if cfg.AllUsers {
		return types.All
	}
	return types.Current
}

// parseConfig layers command line flags over an optional YAML file over the defaults.
func parseConfig(args []string) (runConfig, error) {
	cfg := defaultConfig()
	if path := configPath(args); path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	fs := flag.NewFlagSet("taskmgr", flag.ContinueOnError)
	fs.String("config", "", "YAML file with default settings")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "how often the loop wakes up (e.g. 250ms)")
	fs.DurationVar(&cfg.Refresh, "refresh", cfg.Refresh, "minimum time between CPU samples")
	fs.IntVar(&cfg.TopK, "topk", cfg.TopK, "number of processes to display")
	fs.BoolVar(&cfg.AllUsers, "all", cfg.AllUsers, "list processes of all users")
	fs.BoolVar(&cfg.HideKernel, "hide-kernel", cfg.HideKernel, "hide kernel threads such as kworker, ksoftirqd, etc")
	fs.StringVar(&cfg.NameFilter, "filter", cfg.NameFilter, "only show processes whose name contains this substring")
	fs.StringVar(&cfg.UserFilter, "user", cfg.UserFilter, "only show processes whose username contains this substring")
	fs.Float64Var(&cfg.TicksPerSecond, "ticks-per-second", cfg.TicksPerSecond, "clock ticks per second of the host (USER_HZ)")
	fs.StringVar(&cfg.ProcRoot, "proc", cfg.ProcRoot, "procfs mount point")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warning or error")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write logs to this file instead of discarding them in the live view")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address (e.g. :9102)")
	fs.BoolVar(&cfg.Once, "once", false, "print one table and exit")
	fs.IntVar(&cfg.PID, "pid", 0, "print details for a single process and exit")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.normalize()
	return cfg, nil
}

func (cfg *runConfig) normalize() {
	def := defaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Refresh <= 0 {
		cfg.Refresh = def.Refresh
	}
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.TicksPerSecond <= 0 {
		cfg.TicksPerSecond = def.TicksPerSecond
	}
	if cfg.ProcRoot == "" {
		cfg.ProcRoot = def.ProcRoot
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	cfg.NameFilter = strings.TrimSpace(cfg.NameFilter)
	cfg.UserFilter = strings.TrimSpace(cfg.UserFilter)
}

// configPath finds -config before the real parse so file values become flag defaults.
func configPath(args []string) string {
	for i, arg := range args {
		name := strings.TrimLeft(arg, "-")
		if len(name) == len(arg) {
			continue
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(name, "config=") {
			return strings.TrimPrefix(name, "config=")
		}
	}
	return ""
}

func loadConfigFile(path string, cfg *runConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}
