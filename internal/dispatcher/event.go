// Package dispatcher is component F: the streaming event dispatcher
// that turns per-file scan work into the ordered event vocabulary
// spec.md §4.F defines. Grounded on the teacher's internal/engine/
// engine.go findingsCh/done single-consumer fan-in pattern (repeated
// three times there for staged/base-branch/history scans), generalized
// into the full start/progress/finding/file_complete/error/complete
// stream any caller can consume.
package dispatcher

import "github.com/vibecheck/vibecheck/internal/types"

// EventKind is one of the six event types spec.md §4.F names.
type EventKind string

const (
	EventStart        EventKind = "start"
	EventProgress     EventKind = "progress"
	EventFinding      EventKind = "finding"
	EventFileComplete EventKind = "file_complete"
	EventError        EventKind = "error"
	EventComplete     EventKind = "complete"
)

// ProgressPayload is the required shape of every progress event
// (spec.md §4.F invariant D3).
type ProgressPayload struct {
	Processed            int     `json:"processed"`
	Total                int     `json:"total"`
	Percentage           float64 `json:"percentage"`
	CurrentFile          string  `json:"current_file"`
	ElapsedMs            int64   `json:"elapsed_ms"`
	EstimatedRemainingMs int64   `json:"estimated_remaining_ms"`
}

// ErrorPayload is the shape of an error event (invariant D4): a
// per-file exception is always recoverable and never halts the scan.
type ErrorPayload struct {
	Path        string `json:"path"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

// Event is one item in the dispatcher's output stream.
type Event struct {
	Kind     EventKind
	Finding  *types.Finding
	File     string
	Progress *ProgressPayload
	Error    *ErrorPayload
}
