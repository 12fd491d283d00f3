package qcmpipeline

import (
	"os"

	"github.com/rs/zerolog"
)

// Log is the package logger used by every pipeline stage. Binaries configure
// it once via SetupLogging before running a stage.
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// SetupLogging configures the package logger. Verbose enables debug output
// for per-question decisions; the default level only reports stage summaries.
func SetupLogging(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
