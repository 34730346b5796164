// Package cli implements the mmdrender command-line interface.
//
// The root command renders Mermaid diagram sources in one pass, or with
// --watch keeps their artifacts in sync with the source directory. The
// cache subcommand manages the render cache. The CLI is built using cobra
// and logs via charmbracelet/log.
//
// # Output
//
// Per-diagram results and the final summary are styled status lines on
// stdout. Diagnostics are log lines on stderr; --verbose (-v) enables
// debug level and logs every render, cache, and watch event.
//
// # Logging
//
// Loggers are passed through context.Context so commands share one
// configured logger (see withLogger and loggerFromContext).
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs completion of an operation with its elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at debug level with the elapsed time, e.g.
// "batch complete (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Debugf("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
