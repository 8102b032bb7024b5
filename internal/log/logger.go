package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds a zerolog logger with the given level string (debug, info, warn, error).
// Production output is line-delimited JSON; everything else gets the console writer.
func New(level, environment string) *zerolog.Logger {
	return NewWithWriter(os.Stdout, level, environment)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(out io.Writer, level, environment string) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if environment != "production" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(out).Level(parseLevel(level)).With().Timestamp().Str("service", "gifchat").Logger()
	return &logger
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
