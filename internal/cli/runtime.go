package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sui1tyan/Service-Voucher-Management-System-sub000/internal/config"
	applog "github.com/sui1tyan/Service-Voucher-Management-System-sub000/internal/log"
	"github.com/sui1tyan/Service-Voucher-Management-System-sub000/internal/storage"
)

var loadConfigFn = config.Load

type runtime struct {
	cfg    config.Config
	store  *storage.Store
	logger *slog.Logger

	closeLog func() error
}

func (r *runtime) Close() error {
	var firstErr error
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			firstErr = err
		}
	}
	if r.closeLog != nil {
		if err := r.closeLog(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func loadRuntimeConfig(globals *GlobalOptions) (config.Config, error) {
	loadOpts := config.LoadOptions{}
	if globals != nil {
		if configPath := strings.TrimSpace(globals.ConfigPath); configPath != "" {
			loadOpts.ConfigPath = configPath
		}
		if dataDir := strings.TrimSpace(globals.DataDir); dataDir != "" {
			loadOpts.Env = map[string]string{
				"SVMS_DATA_DIR": dataDir,
			}
		}
	}

	cfg, err := loadConfigFn(loadOpts)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openRuntime loads config, starts logging, and opens the store, which runs
// any pending migrations and seeds the bootstrap records. The caller owns
// the returned handle and must Close it.
func openRuntime(globals *GlobalOptions) (*runtime, error) {
	cfg, err := loadRuntimeConfig(globals)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := applog.Setup(applog.Options{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})
	if err != nil {
		return nil, fmt.Errorf("set up logging: %w", err)
	}

	store, err := storage.Open(cfg.Storage.DBPath(), logger)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	return &runtime{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		closeLog: closeLog,
	}, nil
}

// seedVoucherBase records the configured numbering base without clobbering
// a value an operator already changed through settings.
func seedVoucherBase(ctx context.Context, rt *runtime) error {
	return rt.store.Settings.SetIfAbsent(
		ctx,
		storage.SettingBaseVoucherID,
		strconv.FormatInt(rt.cfg.Vouchers.BaseID, 10),
	)
}
