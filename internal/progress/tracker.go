package progress

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/johndauphine/sqlsrv-adapter/internal/logging"
)

// Tracker draws a terminal progress bar for rows written to one table.
type Tracker struct {
	bar       *progressbar.ProgressBar
	table     string
	total     int64
	current   atomic.Int64
	startTime time.Time
}

// New creates a tracker for total rows. A nil writer draws to stderr.
func New(w io.Writer, table string, total int64) *Tracker {
	if w == nil {
		w = os.Stderr
	}
	return &Tracker{
		table:     table,
		total:     total,
		startTime: time.Now(),
		bar: progressbar.NewOptions64(
			total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(fmt.Sprintf("Loading %s", table)),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("rows"),
			progressbar.OptionSetRenderBlankState(true),
		),
	}
}

// Add increments the row counter.
func (t *Tracker) Add(n int64) {
	t.current.Add(n)
	_ = t.bar.Add64(n)
}

// Current returns the number of rows recorded so far.
func (t *Tracker) Current() int64 {
	return t.current.Load()
}

// Update builds a snapshot suitable for a Reporter.
func (t *Tracker) Update(phase string) Update {
	done := t.current.Load()
	u := Update{
		Phase:      phase,
		Table:      t.table,
		RowsLoaded: done,
		RowsTotal:  t.total,
	}
	if t.total > 0 {
		u.ProgressPct = float64(done) * 100 / float64(t.total)
	}
	if secs := time.Since(t.startTime).Seconds(); secs > 0 {
		u.RowsPerSecond = int64(float64(done) / secs)
	}
	return u
}

// Finish completes the bar and logs the throughput.
func (t *Tracker) Finish() {
	_ = t.bar.Finish()

	elapsed := time.Since(t.startTime)
	rowsPerSec := float64(t.current.Load()) / elapsed.Seconds()
	logging.Info("Load of %s complete: %d rows in %s (%.0f rows/sec)",
		t.table, t.current.Load(), elapsed.Round(time.Millisecond), rowsPerSec)
}
