// Package logger configures the process-wide zerolog logger.
package logger

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/zenwatch/ingestor/internal/config"
)

// New returns a configured zerolog.Logger for the given environment.
func New(cfg *config.Config) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr}
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if cfg.IsDevelopment() && lvl > zerolog.DebugLevel {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
	return zerolog.New(out).With().Timestamp().Logger()
}
