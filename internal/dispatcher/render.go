package dispatcher

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// RenderToProgressBar drains events from a Dispatcher's stream and
// renders `progress` events to a terminal progress bar, returning the
// accumulated findings and any errors reported along the way. It is a
// render sink over the event stream, not a second progress
// implementation — the dispatcher remains the single source of truth
// for progress state (pack dep github.com/schollz/progressbar/v3, first
// seen in this pack in ivoronin-dupedog/vjache-cie).
func RenderToProgressBar(w io.Writer, events <-chan Event) []Event {
	var bar *progressbar.ProgressBar
	var collected []Event
	for ev := range events {
		collected = append(collected, ev)
		switch ev.Kind {
		case EventStart:
			bar = progressbar.NewOptions(-1,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetDescription("scanning"),
				progressbar.OptionShowCount(),
			)
		case EventProgress:
			if bar != nil && ev.Progress != nil {
				bar.ChangeMax(ev.Progress.Total)
				bar.Set(ev.Progress.Processed)
				bar.Describe(ev.Progress.CurrentFile)
			}
		case EventComplete:
			if bar != nil {
				bar.Finish()
			}
		}
	}
	return collected
}
