// Package logging provides the structured logger used throughout the
// collection, NTFS, and archiving packages. It wraps logrus the way the
// teacher codebase wraps its own logger: a small set of verbs plus
// object-scoped fields, rather than exposing the full logrus API everywhere.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the shared interface used by the collector components.
type Logger struct {
	entry *logrus.Entry
}

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return l
}

// New returns a Logger scoped to the given component name, e.g. "collector",
// "archiver", "ntfs".
func New(component string) *Logger {
	return &Logger{entry: base.WithField("component", component)}
}

// With returns a copy of the logger with an additional field attached, e.g.
// logging.New("collector").With("rule", rule.Name).
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// Infof logs a routine progress message, e.g. a successfully collected
// artefact or a successful rule run.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Warnf logs a per-artefact or per-rule failure that the collector trapped
// and continued past.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// Errorf logs a failure that is about to be surfaced to the caller.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// Debugf logs low-level tracing detail, e.g. sector-aligned read bookkeeping.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// SetLevel adjusts the global log level. The CLI has no flag that calls it.
func SetLevel(level logrus.Level) {
	base.SetLevel(level)
}
