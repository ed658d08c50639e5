// Package logging wires zerolog into the per-component, per-order
// structured logger every piece of the solver uses.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger for the process. levelName is one of
// debug/info/warn/error (case-insensitive); an unrecognized value falls
// back to info.
func New(levelName string, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	level := parseLevel(levelName)
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "info", "":
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component returns a child logger tagged with the owning component name,
// e.g. logging.Component(root, "orchestrator").
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}

// ForOrder further tags a component logger with the order it is acting on.
func ForOrder(base zerolog.Logger, orderID string) zerolog.Logger {
	return base.With().Str("order_id", orderID).Logger()
}
