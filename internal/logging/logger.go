// Package logging provides structured logging with zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logging configuration.
type Config struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // json, console
	TimeFormat string `yaml:"time_format"`
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "json",
		TimeFormat: time.RFC3339,
	}
}

// Validate rejects unknown levels and formats.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log level %q: %w", c.Level, err)
	}
	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log format %q: want json or console", c.Format)
	}
	return nil
}

// Init initializes the global zerolog logger writing to stderr.
func Init(cfg Config) {
	InitWriter(cfg, os.Stderr)
}

// InitWriter initializes the global zerolog logger writing to w.
func InitWriter(cfg Config, w io.Writer) {
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := w
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.Kitchen,
		}
	}

	log.Logger = zerolog.New(output).
		With().
		Timestamp().
		Logger()
}

// WithComponent returns a logger with a component tag.
func WithComponent(component string) zerolog.Logger {
	return log.With().
		Str("component", component).
		Logger()
}

// WithRequest returns a child of base tagged with a request id.
func WithRequest(base zerolog.Logger, requestID string) zerolog.Logger {
	return base.With().
		Str("requestId", requestID).
		Logger()
}
