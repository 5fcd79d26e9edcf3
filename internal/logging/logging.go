// Package logging builds the zerolog logger used by the authnet binary.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/AmmannChristian/go-authnet/config"
	"github.com/rs/zerolog"
)

// New returns a logger writing to w in the configured format and level.
// A nil w writes to stderr.
func New(cfg config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("logging: %w", err)
		}
		level = parsed
	}

	switch cfg.Format {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "authnet").Logger(), nil
}
