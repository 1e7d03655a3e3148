package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/johndauphine/sqlsrv-adapter/internal/logging"
)

// Update is one machine-readable progress line of a row load.
type Update struct {
	Timestamp     string  `json:"timestamp"`
	Phase         string  `json:"phase"`
	Table         string  `json:"table"`
	RowsLoaded    int64   `json:"rows_loaded"`
	RowsTotal     int64   `json:"rows_total"`
	ProgressPct   float64 `json:"progress_pct"`
	RowsPerSecond int64   `json:"rows_per_second,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// Reporter defines the interface for progress reporting.
type Reporter interface {
	// Report emits a progress update (may be throttled)
	Report(update Update)
	// ReportImmediate emits a progress update immediately, bypassing throttling
	ReportImmediate(update Update)
	// Close cleans up any resources
	Close()
}

// JSONReporter writes one JSON object per line, typically to stderr, for
// scripts driving the CLI.
type JSONReporter struct {
	writer     io.Writer
	mu         sync.Mutex
	interval   time.Duration
	lastReport time.Time
	closed     bool
}

// NewJSONReporter creates a new JSON progress reporter.
// interval specifies the minimum time between updates (to avoid flooding).
func NewJSONReporter(writer io.Writer, interval time.Duration) *JSONReporter {
	if writer == nil {
		writer = os.Stderr
	}
	return &JSONReporter{
		writer:   writer,
		interval: interval,
	}
}

// Report emits update unless the previous line is younger than the interval.
func (r *JSONReporter) Report(update Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	now := time.Now()
	if r.interval > 0 && now.Sub(r.lastReport) < r.interval {
		return
	}
	r.write(update, now)
}

// ReportImmediate emits update regardless of the interval.
// Used for the start and end of a load.
func (r *JSONReporter) ReportImmediate(update Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.write(update, time.Now())
}

func (r *JSONReporter) write(update Update, now time.Time) {
	if update.Timestamp == "" {
		update.Timestamp = now.Format(time.RFC3339)
	}
	data, err := json.Marshal(update)
	if err != nil {
		logging.Warn("Failed to encode progress update: %v", err)
		return
	}
	fmt.Fprintln(r.writer, string(data))
	r.lastReport = now
}

// Close marks the reporter as closed.
func (r *JSONReporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// NullReporter is a no-op reporter for when progress reporting is disabled.
type NullReporter struct{}

// Report does nothing.
func (r *NullReporter) Report(update Update) {}

// ReportImmediate does nothing.
func (r *NullReporter) ReportImmediate(update Update) {}

// Close does nothing.
func (r *NullReporter) Close() {}
