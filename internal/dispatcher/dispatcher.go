package dispatcher

import (
	"sync"
	"time"

	"github.com/vibecheck/vibecheck/internal/types"
)

// DefaultProgressIntervalMs is spec.md §4.F's default progress_interval_ms.
const DefaultProgressIntervalMs = 250

// DefaultWindowSize is the trailing-window size the ETA estimate uses.
const DefaultWindowSize = 20

// Dispatcher emits the ordered event vocabulary spec.md §4.F requires.
// Safe for concurrent use from multiple file-processing goroutines (the
// "parallel" shape); a single caller alone produces the "sequential"
// shape, both brackt by exactly one start and one complete (D1).
type Dispatcher struct {
	mu sync.Mutex

	out   chan Event
	total int

	progressIntervalMs int64
	window             *trailingWindow

	startedAt      int64
	lastProgressAt int64
	processed      int
	currentFile    string

	started   bool
	completed bool
}

// New builds a Dispatcher for a scan of `total` files.
func New(total int) *Dispatcher {
	return &Dispatcher{
		out:                make(chan Event, 64),
		total:              total,
		progressIntervalMs: DefaultProgressIntervalMs,
		window:             newTrailingWindow(DefaultWindowSize),
	}
}

// WithProgressInterval overrides the default 250ms progress throttle.
func (d *Dispatcher) WithProgressInterval(ms int64) *Dispatcher {
	d.progressIntervalMs = ms
	return d
}

// Events returns the read side of the event stream.
func (d *Dispatcher) Events() <-chan Event {
	return d.out
}

func nowMs() int64 { return time.Now().UnixMilli() }

// Start emits the single start event that must precede every other
// event (D1). Calling it more than once is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	d.startedAt = nowMs()
	d.out <- Event{Kind: EventStart}
}

// Finding emits a finding event for a file (D2: zero or more per file,
// always before that file's file_complete).
func (d *Dispatcher) Finding(f types.Finding) {
	fc := f
	d.out <- Event{Kind: EventFinding, Finding: &fc, File: f.Path}
}

// FileComplete emits a file_complete event for path and records its
// processing duration in the trailing window, then emits a throttled
// progress event if progress_interval_ms has elapsed since the last one.
func (d *Dispatcher) FileComplete(path string, durationMs int64) {
	d.mu.Lock()
	d.processed++
	d.currentFile = path
	d.window.add(durationMs)
	d.mu.Unlock()

	d.out <- Event{Kind: EventFileComplete, File: path}
	d.maybeEmitProgress()
}

// Error emits a per-file error event. Per D4, per-file exceptions are
// always recoverable=true and scanning continues.
func (d *Dispatcher) Error(path string, message string) {
	d.out <- Event{Kind: EventError, File: path, Error: &ErrorPayload{
		Path: path, Message: message, Recoverable: true,
	}}
}

// Complete emits the single terminating complete event and closes the
// stream. Calling it more than once is a no-op.
func (d *Dispatcher) Complete() {
	d.mu.Lock()
	if d.completed {
		d.mu.Unlock()
		return
	}
	d.completed = true
	d.mu.Unlock()
	d.out <- Event{Kind: EventComplete}
	close(d.out)
}

func (d *Dispatcher) maybeEmitProgress() {
	d.mu.Lock()
	now := nowMs()
	if now-d.lastProgressAt < d.progressIntervalMs {
		d.mu.Unlock()
		return
	}
	d.lastProgressAt = now
	processed := d.processed
	total := d.total
	current := d.currentFile
	elapsed := now - d.startedAt
	avgMs := d.window.average()
	remaining := total - processed
	var etaMs int64
	if remaining > 0 && avgMs > 0 {
		etaMs = int64(avgMs) * int64(remaining)
	}
	d.mu.Unlock()

	var pct float64
	if total > 0 {
		pct = float64(processed) / float64(total) * 100
	}
	d.out <- Event{Kind: EventProgress, Progress: &ProgressPayload{
		Processed:            processed,
		Total:                total,
		Percentage:           pct,
		CurrentFile:          current,
		ElapsedMs:            elapsed,
		EstimatedRemainingMs: etaMs,
	}}
}
