// Package observability builds the structured logger and Prometheus metrics
// shared by the CLI, the worker and the API.
package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type LoggingConfig struct {
	// Level is the minimum level (trace, debug, info, warn, error).
	Level string
	// Format is json or console.
	Format string
	// Output is stdout or stderr.
	Output    string
	AddSource bool
}

func NewLogger(cfg LoggingConfig) zerolog.Logger {
	return newLogger(cfg, nil)
}

func newLogger(cfg LoggingConfig, w io.Writer) zerolog.Logger {
	out := w
	if out == nil {
		switch strings.ToLower(cfg.Output) {
		case "stderr":
			out = os.Stderr
		default:
			out = os.Stdout
		}
	}
	zerolog.TimeFieldFormat = time.RFC3339
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	lc := zerolog.New(out).With().Timestamp()
	if cfg.AddSource {
		lc = lc.Caller()
	}
	return lc.Logger().Level(ParseLevel(cfg.Level))
}

func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithDocument tags log lines with the document being processed.
func WithDocument(logger zerolog.Logger, filename string) zerolog.Logger {
	return logger.With().Str("document", filename).Logger()
}

func WithWorkflow(logger zerolog.Logger, workflowID, runID string) zerolog.Logger {
	return logger.With().
		Str("workflow_id", workflowID).
		Str("run_id", runID).
		Logger()
}
