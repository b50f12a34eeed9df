// Package logging provides structured logging with zerolog.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	TimeFormat string
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "json",
		TimeFormat: time.RFC3339,
	}
}

// Init configures the global zerolog logger to write to w. Commands pass
// stderr so that output on stdout stays machine readable.
func Init(cfg Config, w io.Writer) {
	log.Logger = New(cfg, w)
}

// New builds a logger writing to w without touching the global logger,
// except for the process-wide level and time format.
func New(cfg Config, w io.Writer) zerolog.Logger {
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339
	}
	zerolog.TimeFieldFormat = cfg.TimeFormat

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := w
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// WithComponent returns a logger with a component tag.
func WithComponent(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// WithEvent returns a logger tagged with the dataLayer event name.
func WithEvent(component, event string) zerolog.Logger {
	return log.With().
		Str("component", component).
		Str("event", event).
		Logger()
}
