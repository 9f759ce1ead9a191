// Package logging builds the zerolog loggers shared by the CLI, the API server and the pipeline.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Environments recognised by New.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// New constructs a logger for the given environment. Development gets a
// human-readable console writer at debug level; everything else logs JSON at info.
func New(appEnv string) zerolog.Logger {
	return NewWithWriter(appEnv, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(appEnv string, out io.Writer) zerolog.Logger {
	env := strings.ToLower(strings.TrimSpace(appEnv))

	level := zerolog.InfoLevel
	if env == EnvDevelopment {
		level = zerolog.DebugLevel
	}
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && os.Getenv("LOG_LEVEL") != "" {
		level = lvl
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "reel-studio").
		Logger()

	if env == EnvDevelopment {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	return logger
}

// Component returns a child logger tagged with a component name.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
