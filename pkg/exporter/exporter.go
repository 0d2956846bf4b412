// Package exporter publishes the tracker's latest view as Prometheus metrics.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/srodi/taskmgr/pkg/tracker"
	"github.com/srodi/taskmgr/pkg/types"
)

const namespace = "taskmgr"

// Exporter is a prometheus.Collector over the most recent process table.
type Exporter struct {
	topK int

	mu    sync.Mutex
	rows  []types.Process
	stats tracker.Stats

	cpuPercent *prometheus.Desc
	tracked    *prometheus.Desc
	updates    *prometheus.Desc
	failures   *prometheus.Desc

	registry *prometheus.Registry
}

// New returns an Exporter registered on its own registry. Only the first topK
// rows of each observation are exported; topK <= 0 exports all of them.
func New(topK int) *Exporter {
	e := &Exporter{
		topK: topK,
		cpuPercent: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "process", "cpu_percent"),
			"Smoothed CPU utilization of a process relative to one core.",
			[]string{"pid", "name", "user"}, nil,
		),
		tracked: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "tracked_processes"),
			"Number of pids with CPU history.",
			nil, nil,
		),
		updates: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "updates_total"),
			"Successful tracker updates.",
			nil, nil,
		),
		failures: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "update_failures_total"),
			"Tracker updates skipped because tick counters could not be read.",
			nil, nil,
		),
		registry: prometheus.NewRegistry(),
	}
	e.registry.MustRegister(e)
	return e
}

// Observe stores a copy of rows, which are expected in display order.
func (e *Exporter) Observe(rows []types.Process, stats tracker.Stats) {
	if e.topK > 0 && len(rows) > e.topK {
		rows = rows[:e.topK]
	}
	snapshot := make([]types.Process, len(rows))
	copy(snapshot, rows)

	e.mu.Lock()
	e.rows = snapshot
	e.stats = stats
	e.mu.Unlock()
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.cpuPercent
	ch <- e.tracked
	ch <- e.updates
	ch <- e.failures
}

// Collect implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, row := range e.rows {
		ch <- prometheus.MustNewConstMetric(e.cpuPercent, prometheus.GaugeValue, row.CPUPercent,
			strconv.Itoa(row.PID), row.Name, row.Username)
	}
	ch <- prometheus.MustNewConstMetric(e.tracked, prometheus.GaugeValue, float64(e.stats.Tracked))
	ch <- prometheus.MustNewConstMetric(e.updates, prometheus.CounterValue, float64(e.stats.Updates))
	ch <- prometheus.MustNewConstMetric(e.failures, prometheus.CounterValue, float64(e.stats.Failures))
}

// Handler serves the exporter's registry.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (e *Exporter) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("serving metrics", helpers.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	}
}
