// Package logging is VibeCheck's ambient structured-logging layer.
// Grounded on the teacher's diagnostic fmt.Fprintln(os.Stderr, ...) calls
// scattered through cmd/redactyl, generalized onto logrus (already an
// indirect teacher dependency) so every component logs with structured
// fields instead of ad-hoc strings.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the shared interface every component accepts. It is a thin
// wrapper so packages depend on an interface, not the concrete logrus type.
type Logger interface {
	WithField(key string, value any) Logger
	WithFields(fields map[string]any) Logger
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type logrusLogger struct {
	entry *logrus.Entry
}

// New builds the default logger: text formatter to stderr, level driven by
// VIBECHECK_LOG_LEVEL (default "info"), honoring NO_COLOR/FORCE_COLOR.
func New() Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:    os.Getenv("NO_COLOR") != "" && os.Getenv("FORCE_COLOR") == "",
		FullTimestamp:    true,
		DisableTimestamp: false,
	})
	if lvl, err := logrus.ParseLevel(envOr("VIBECHECK_LOG_LEVEL", "info")); err == nil {
		l.SetLevel(lvl)
	}
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

// NewWithWriter builds a logger writing to an arbitrary writer (tests, CLI
// --quiet redirection to io.Discard).
func NewWithWriter(w io.Writer) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (l *logrusLogger) WithField(key string, value any) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

func (l *logrusLogger) WithFields(fields map[string]any) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *logrusLogger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *logrusLogger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }

// Nop is a logger that discards everything — used in tests and --quiet.
func Nop() Logger { return NewWithWriter(io.Discard) }
