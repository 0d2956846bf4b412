package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"

	"github.com/srodi/taskmgr/pkg/collector/cpu"
	"github.com/srodi/taskmgr/pkg/exporter"
	"github.com/srodi/taskmgr/pkg/report"
	"github.com/srodi/taskmgr/pkg/tracker"
	"github.com/srodi/taskmgr/pkg/types"
)

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "taskmgr: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg runConfig) error {
	if err := logger.L().SetLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}

	collector, err := cpu.NewCollector(cpu.Config{ProcRoot: cfg.ProcRoot, TicksPerSecond: cfg.TicksPerSecond})
	if err != nil {
		return fmt.Errorf("initializing collector: %w", err)
	}
	defer collector.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr := tracker.New(tracker.Config{Interval: cfg.Refresh, TicksPerSecond: cfg.TicksPerSecond})

	switch {
	case cfg.PID > 0:
		return runDetail(ctx, os.Stdout, cfg, collector, tr)
	case cfg.Once:
		return runOnce(ctx, cfg, newRefresher(collector, tr, cfg.filter()))
	}

	logPath, closeLog, err := setupLogging(cfg, isTerminal())
	if err != nil {
		return err
	}
	defer closeLog()

	var exp *exporter.Exporter
	waitMetrics := func() {}
	if cfg.MetricsAddr != "" {
		exp = exporter.New(cfg.TopK)
		waitMetrics = serveMetrics(ctx, exp, cfg.MetricsAddr)
	}

	err = runLive(ctx, cfg, newRefresher(collector, tr, cfg.filter()), exp, logPath)
	stop()
	waitMetrics()
	return err
}

// serveMetrics runs the metrics endpoint until ctx is done. The returned func
// blocks until the server has shut down.
func serveMetrics(ctx context.Context, exp *exporter.Exporter, addr string) func() {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := exp.Serve(ctx, addr); err != nil {
			logger.L().Error("metrics endpoint stopped", helpers.Error(err))
		}
	}()
	return wg.Wait
}

// defaultLogPath is where live mode writes logs when no -log-file is given.
func defaultLogPath() string {
	return filepath.Join(os.TempDir(), "taskmgr.log")
}

// setupLogging keeps log lines out of the live view. It returns the file that
// receives them, or "" when logs stay on stderr.
func setupLogging(cfg runConfig, live bool) (string, func(), error) {
	path := cfg.LogFile
	if path == "" {
		if !live {
			return "", func() {}, nil
		}
		path = defaultLogPath()
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", nil, fmt.Errorf("opening log file: %w", err)
	}
	logger.L().SetWriter(f)
	return path, func() {
		logger.L().SetWriter(os.Stderr)
		f.Close()
	}, nil
}

func runLive(ctx context.Context, cfg runConfig, r *refresher, exp *exporter.Exporter, logPath string) error {
	scr := openScreen()
	defer scr.close()

	logicalCPUs := cpu.LogicalCPUs()
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		if r.tracker.NeedsUpdate() {
			rows, err := r.refresh()
			if err != nil {
				logger.L().Warning("refresh failed", helpers.Error(err))
			} else {
				status := viewStatus{Skipped: r.tracker.Stats().Failures, LogPath: logPath}
				scr.draw(render(cfg, rows, logicalCPUs, time.Now(), status))
				if exp != nil {
					exp.Observe(arrange(rows, cfg), r.tracker.Stats())
				}
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// runOnce takes two samples one refresh apart and prints a single table.
func runOnce(ctx context.Context, cfg runConfig, r *refresher) error {
	if _, err := r.refresh(); err != nil {
		return err
	}
	if err := wait(ctx, cfg.Refresh); err != nil {
		return nil
	}
	rows, err := r.refresh()
	if err != nil {
		return err
	}
	fmt.Print(render(cfg, rows, cpu.LogicalCPUs(), time.Now(), viewStatus{Skipped: r.tracker.Stats().Failures}))
	return nil
}

// runDetail samples one process twice, a refresh apart, and prints its details.
// A process that is gone by the second sample is reported as not found.
func runDetail(ctx context.Context, w io.Writer, cfg runConfig, source processSource, tr *tracker.Tracker) error {
	p, err := source.Process(cfg.PID)
	if err != nil {
		return err
	}

	rows := []types.Process{p}
	tr.Update(rows, source)
	if err := wait(ctx, cfg.Refresh); err != nil {
		return nil
	}
	tr.Update(rows, source)
	if tr.HistoryLen(p.PID) < 2 {
		return fmt.Errorf("pid %d: %w", p.PID, cpu.ErrProcessNotFound)
	}

	_, err = io.WriteString(w, report.ProcessDetail(rows[0]))
	return err
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
