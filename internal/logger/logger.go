// Package logger configures the process-wide zerolog logger
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global logger with the specified level and format
func Init(level, format string) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if format == "console" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "2006-01-02 15:04:05",
		}).With().Timestamp().Logger()
		return
	}

	// JSON format (default)
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Get returns a reference to the global logger
func Get() *zerolog.Logger {
	return &log.Logger
}

// Component returns a child of the global logger tagged with a component name
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}
