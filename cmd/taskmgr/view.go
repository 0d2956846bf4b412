package main

import (
	"bytes"
	"fmt"
	"time"

	"github.com/srodi/taskmgr/pkg/report"
	"github.com/srodi/taskmgr/pkg/tracker"
	"github.com/srodi/taskmgr/pkg/types"
	"github.com/srodi/taskmgr/pkg/ui"
)

type processSource interface {
	tracker.TickSource
	Table(filter types.UserFilter) ([]types.Process, types.TickSnapshot, error)
	Process(pid int) (types.Process, error)
}

// refresher rebuilds the process table and lets the tracker annotate it.
type refresher struct {
	source  processSource
	tracker *tracker.Tracker
	filter  types.UserFilter
	rows    []types.Process
	last    map[int]float64
}

func newRefresher(source processSource, tr *tracker.Tracker, filter types.UserFilter) *refresher {
	return &refresher{source: source, tracker: tr, filter: filter, last: map[int]float64{}}
}

// refresh enumerates processes and runs one tracker update. Rows start from the
// previous percentages so a skipped update keeps showing the last known values.
// When the table cannot be read at all the previous rows are handed to the
// tracker with the read error, which records the skipped update.
func (r *refresher) refresh() ([]types.Process, error) {
	rows, snap, err := r.source.Table(r.filter)
	if err != nil {
		if r.rows == nil {
			return nil, fmt.Errorf("listing processes: %w", err)
		}
		rows = append([]types.Process(nil), r.rows...)
		r.tracker.Update(rows, tracker.TickSourceFunc(func() (types.TickSnapshot, error) {
			return types.TickSnapshot{}, err
		}))
		return rows, nil
	}
	for i := range rows {
		rows[i].CPUPercent = r.last[rows[i].PID]
	}

	r.tracker.Update(rows, tracker.StaticSource(snap))

	r.rows = append(r.rows[:0], rows...)
	r.last = make(map[int]float64, len(rows))
	for _, row := range rows {
		r.last[row.PID] = row.CPUPercent
	}
	return rows, nil
}

// viewStatus is what the footer and header report besides the table.
type viewStatus struct {
	Skipped uint64 // tracker updates that kept previous values
	LogPath string
}

// arrange filters, sorts and trims rows for display.
func arrange(rows []types.Process, cfg runConfig) []types.Process {
	hideKernel := cfg.HideKernel
	visible := report.FilterProcesses(rows, report.FilterConfig{
		HideKernel: &hideKernel,
		NameFilter: cfg.NameFilter,
		User:       cfg.UserFilter,
	})
	report.SortByCPU(visible)
	return report.TopRows(visible, cfg.TopK)
}

func render(cfg runConfig, rows []types.Process, logicalCPUs int, updated time.Time, status viewStatus) string {
	var buf bytes.Buffer
	buf.WriteString(ui.Banner())
	fmt.Fprintf(&buf, "Updated: %s | Refresh: %v | Users: %s", updated.Format(time.RFC3339), cfg.Refresh, cfg.filter())
	if status.Skipped > 0 {
		fmt.Fprintf(&buf, " | Skipped updates: %d", status.Skipped)
	}
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "%s\n\n", report.SummaryLine(report.Summarize(rows, logicalCPUs)))

	top := arrange(rows, cfg)
	if len(top) == 0 {
		fmt.Fprintf(&buf, "[!] No processes matched current filters (topk=%d, hide-kernel=%t)\n", cfg.TopK, cfg.HideKernel)
	} else {
		_ = report.WriteTable(&buf, top)
	}
	buf.WriteString("\n")
	hint := "press Ctrl+C to exit"
	if status.LogPath != "" {
		hint += " | log: " + status.LogPath
	}
	buf.WriteString(ui.Hint(hint))
	return buf.String()
}
