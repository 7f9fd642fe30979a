// Package applog wraps slog with a per-component logger so log lines can be
// traced back to the subsystem that emitted them.
package applog

import (
	"log/slog"
	"os"
)

type Logger struct {
	*slog.Logger
	component string
}

// New creates a text logger on stdout at the given level.
func New(level slog.Level) *Logger {
	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(h), component: "app"}
}

// WithComponent returns a logger tagging every record with the component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With("component", component), component: component}
}

func (l *Logger) Component() string { return l.component }

// Default is the process-wide logger; main replaces it after reading config.
var Default = New(slog.LevelInfo)
