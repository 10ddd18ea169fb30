package log

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults mirror the config package's logging defaults, so a
// zero-valued override can never produce an unbounded voucher-activity log.
const (
	defaultRotateSizeMB = 10
	defaultRotateFiles  = 5
)

// RotationConfig caps the size of the store's activity log. The zero value
// of the numeric fields means "use the default cap", not "unlimited".
type RotationConfig struct {
	File      string
	MaxSizeMB int
	MaxFiles  int
}

func (c RotationConfig) withDefaults() RotationConfig {
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = defaultRotateSizeMB
	}
	if c.MaxFiles <= 0 {
		c.MaxFiles = defaultRotateFiles
	}
	return c
}

// NewRotatingWriter opens a size-capped log writer, creating the log
// directory on first use. The directory is private to the operator since
// log lines may name customers.
func NewRotatingWriter(cfg RotationConfig) (*lumberjack.Logger, error) {
	if cfg.File == "" {
		return nil, fmt.Errorf("log rotation: file path is required")
	}
	cfg = cfg.withDefaults()

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return nil, fmt.Errorf("log rotation: create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxFiles,
	}, nil
}
