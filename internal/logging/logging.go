// Package logging builds the zerolog logger shared by the client components.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config interface {
	GetAppName() string
	GetLogLevel() string
	GetLogFormat() string
}

// New returns a logger writing to w (stderr when nil) and installs it as the
// zerolog global logger.
func New(cfg Config, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if strings.EqualFold(cfg.GetLogFormat(), "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(w).Level(level).With().
		Timestamp().
		Str("app", cfg.GetAppName()).
		Logger()
	log.Logger = logger
	return logger
}
