package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/srodi/taskmgr/pkg/types"
)

// FilterConfig controls which processes appear in CLI tables.
type FilterConfig struct {
	HideKernel *bool  // nil defaults to true so kernel threads stay hidden unless explicitly shown
	NameFilter string // case-insensitive substring of the process name
	User       string // case-insensitive substring of the username
}

func (cfg FilterConfig) hideKernelEnabled() bool {
	if cfg.HideKernel == nil {
		return true
	}
	return *cfg.HideKernel
}

// Summary is the status line above the table.
type Summary struct {
	Processes  int
	TotalCPU   float64
	Busiest    *types.Process
	LogicalCPU int
}

// FilterProcesses applies kernel/name/user filters before ranking.
func FilterProcesses(rows []types.Process, cfg FilterConfig) []types.Process {
	filtered := make([]types.Process, 0, len(rows))
	for _, row := range rows {
		if passesFilters(row, cfg) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// SortByCPU orders rows by descending CPUPercent, lowest PID first on ties.
func SortByCPU(rows []types.Process) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CPUPercent == rows[j].CPUPercent {
			return rows[i].PID < rows[j].PID
		}
		return rows[i].CPUPercent > rows[j].CPUPercent
	})
}

// TopRows returns at most topK rows; topK <= 0 keeps everything.
func TopRows(rows []types.Process, topK int) []types.Process {
	if topK > 0 && len(rows) > topK {
		return rows[:topK]
	}
	return rows
}

// Summarize totals CPU usage across rows and picks the busiest process.
func Summarize(rows []types.Process, logicalCPUs int) Summary {
	s := Summary{Processes: len(rows), LogicalCPU: logicalCPUs}
	for i := range rows {
		s.TotalCPU += rows[i].CPUPercent
		if s.Busiest == nil || rows[i].CPUPercent > s.Busiest.CPUPercent {
			copy := rows[i]
			s.Busiest = &copy
		}
	}
	if s.Busiest != nil && s.Busiest.CPUPercent == 0 {
		s.Busiest = nil
	}
	return s
}

// SummaryLine renders s for the header.
func SummaryLine(s Summary) string {
	line := fmt.Sprintf("%d processes | %.1f%% CPU total", s.Processes, s.TotalCPU)
	if s.LogicalCPU > 0 {
		line += fmt.Sprintf(" (of %d%%)", 100*s.LogicalCPU)
	}
	if s.Busiest != nil {
		line += fmt.Sprintf(" | busiest: %s (pid %d) %s", s.Busiest.Name, s.Busiest.PID, s.Busiest.CPUPercentString())
	}
	return line
}

// WriteTable renders rows as an aligned table.
func WriteTable(w io.Writer, rows []types.Process) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tUID\tUSER\tCPU(%)\tNAME")
	for _, row := range rows {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", row.PID, row.RUID, row.Username, row.CPUPercentString(), row.Name)
	}
	return tw.Flush()
}

// ProcessDetail returns a block describing a single process.
func ProcessDetail(p types.Process) string {
	var b strings.Builder
	b.WriteString("=== Process Details ===\n")
	fmt.Fprintf(&b, "PID:       %d\n", p.PID)
	fmt.Fprintf(&b, "Name:      %s\n", p.Name)
	fmt.Fprintf(&b, "UID:       %d\n", p.RUID)
	fmt.Fprintf(&b, "Username:  %s\n", p.Username)
	fmt.Fprintf(&b, "CPU Usage: %s\n", p.CPUPercentString())
	if isKernelThread(p) {
		b.WriteString("Kind:      kernel thread\n")
	}
	b.WriteString("=======================\n")
	return b.String()
}

func passesFilters(row types.Process, cfg FilterConfig) bool {
	if cfg.hideKernelEnabled() && isKernelThread(row) {
		return false
	}
	if cfg.NameFilter != "" && !strings.Contains(strings.ToLower(row.Name), strings.ToLower(cfg.NameFilter)) {
		return false
	}
	if cfg.User != "" && !strings.Contains(strings.ToLower(row.Username), strings.ToLower(cfg.User)) {
		return false
	}
	return true
}

func isKernelThread(row types.Process) bool {
	if row.PID == 0 {
		return true
	}
	name := strings.ToLower(row.Name)
	switch {
	case strings.HasPrefix(name, "kworker"), strings.HasPrefix(name, "ksoftirqd"), strings.HasPrefix(name, "kthreadd"),
		strings.HasPrefix(name, "migration"), strings.HasPrefix(name, "watchdog"), strings.HasPrefix(name, "rcu"),
		strings.HasPrefix(name, "irq/"):
		return true
	}
	return false
}
