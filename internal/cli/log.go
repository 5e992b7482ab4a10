// Package cli implements the pathstep command-line interface.
//
// The CLI turns graph text into Dijkstra traces and lets the user inspect
// them: as tables, as rendered diagrams or interactively in a terminal
// player. It is built on cobra, logs through charmbracelet/log and renders
// the player with bubbletea and lipgloss.
//
// # Commands
//
//   - trace: print the step table or the trace as JSON
//   - play: step through a trace interactively
//   - random: print a random graph as node and edge text
//   - render: draw one step as DOT, SVG, PDF, PNG or JSON
//   - serve: run the HTTP API
//   - cache: inspect or clear the trace cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs pipeline, cache and playback hook events. Loggers are passed through
// context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger on w with short timestamps ("14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the elapsed time of one operation.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Rendered step 9 of 9 (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger stored by withLogger, or
// log.Default() when there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
