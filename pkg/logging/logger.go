package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	// RequestIDKey is the key used to store request IDs in context.
	RequestIDKey contextKey = "request_id"
	// InstrumentKey is the key used to store the active instrument name
	// in context, so book operations can be traced back to their book
	// without threading it through every call.
	InstrumentKey contextKey = "instrument"
)

// Config defines logging configuration.
type Config struct {
	// Level is the logging level (debug, info, warn, error).
	Level string
	// Pretty determines if logs should be formatted for human readability.
	Pretty bool
	// Output is where logs are written (defaults to os.Stdout).
	Output io.Writer
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Pretty: false,
		Output: os.Stdout,
	}
}

// Setup configures global logging based on the provided config.
func Setup(cfg Config) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// FromContext extracts a logger annotated with whatever request/instrument
// identifiers are present in ctx.
func FromContext(ctx context.Context) zerolog.Logger {
	logCtx := log.With()
	annotated := false

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		logCtx = logCtx.Str("request_id", requestID)
		annotated = true
	}
	if instrument, ok := ctx.Value(InstrumentKey).(string); ok {
		logCtx = logCtx.Str("instrument", instrument)
		annotated = true
	}

	if !annotated {
		return log.Logger
	}
	return logCtx.Logger()
}

// WithInstrument returns a context carrying instrument for later
// retrieval via FromContext.
func WithInstrument(ctx context.Context, instrument string) context.Context {
	return context.WithValue(ctx, InstrumentKey, instrument)
}
