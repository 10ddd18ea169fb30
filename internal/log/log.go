// Package log configures the process-wide structured logger: slog over a
// size-capped rotating file (or stderr), with credential fields redacted.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Options struct {
	Level     string
	File      string
	MaxSizeMB int
	MaxFiles  int
}

// Setup builds the logger described by opts. The returned closer flushes the
// rotating writer and must be called before process exit when a file is used.
func Setup(opts Options) (*slog.Logger, func() error, error) {
	var (
		writer io.Writer = os.Stderr
		closer           = func() error { return nil }
	)

	if opts.File != "" {
		rotating, err := NewRotatingWriter(RotationConfig{
			File:      opts.File,
			MaxSizeMB: opts.MaxSizeMB,
			MaxFiles:  opts.MaxFiles,
		})
		if err != nil {
			return nil, nil, err
		}
		writer = rotating
		closer = rotating.Close
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: parseLevel(opts.Level)})
	return slog.New(NewRedactingHandler(handler)), closer, nil
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
