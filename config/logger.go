package config

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. Debug mode writes human-readable
// console lines at debug level; production writes JSON at info level.
func NewLogger(mode RunMode, w io.Writer) zerolog.Logger {
	if mode == ModeDebug {
		out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
		return zerolog.New(out).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	}
	return zerolog.New(w).Level(zerolog.InfoLevel).With().Timestamp().Logger()
}
