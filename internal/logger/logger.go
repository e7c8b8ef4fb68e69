// Package logger builds the process-wide zerolog logger and adapts it to the
// plain func(string) loggers taken by the other packages.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// New returns a logger writing JSON lines to w at level. Every event carries a
// timestamp and the id of the labeling session.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("session", uuid.NewString()).
		Logger()
}

// NewConsole returns a human-readable logger on stderr.
func NewConsole(level zerolog.Level) zerolog.Logger {
	return New(zerolog.ConsoleWriter{Out: os.Stderr}, level)
}

// ParseLevel accepts debug, info, warn or error.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	}
	return zerolog.InfoLevel, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", s)
}

// Func adapts l to a func(string) tagged with component. Messages starting
// with "Warning:" or "Error" are logged at the matching level, the rest at
// info.
func Func(l zerolog.Logger, component string) func(string) {
	cl := l.With().Str("component", component).Logger()
	return func(message string) {
		switch {
		case strings.HasPrefix(message, "Warning:"):
			cl.Warn().Msg(strings.TrimSpace(strings.TrimPrefix(message, "Warning:")))
		case strings.HasPrefix(message, "Error"):
			cl.Error().Msg(message)
		default:
			cl.Info().Msg(message)
		}
	}
}

// Tee returns a func(string) that calls every non-nil fn in order.
func Tee(fns ...func(string)) func(string) {
	return func(message string) {
		for _, fn := range fns {
			if fn != nil {
				fn(message)
			}
		}
	}
}
