// Package cli implements the refcodec command-line interface.
//
// The commands convert documents between transports (convert), summarize
// their shape (inspect) and print CBOR diagnostic notation (diag). Defaults
// come from an optional TOML file given with --config; flags override it.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// turns on the encoder's and decoder's per-call debug lines.
package cli

import (
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

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at debug level with the elapsed time since progress was created.
// Example output: "converted json to cbor bytes=512 elapsed=3ms"
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Debug(msg, append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))...)
}
