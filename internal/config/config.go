// Package config loads the immutable process configuration: shop identity
// constants, data directories, voucher numbering, and logging. The loaded
// value is constructed once at startup and passed by reference; nothing in
// the repository reads configuration from globals.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultShopName      = "Service Centre"
	defaultLogLevel      = "info"
	defaultLogMaxSizeMB  = 10
	defaultLogMaxFiles   = 5
	defaultBaseVoucherID = 41000
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Shop     ShopConfig    `toml:"shop"`
	Storage  StorageConfig `toml:"storage"`
	Vouchers VoucherConfig `toml:"vouchers"`
	Logging  LoggingConfig `toml:"logging"`
}

// ShopConfig is printed on every generated voucher document.
type ShopConfig struct {
	Name     string `toml:"name"`
	Address  string `toml:"address"`
	Phone    string `toml:"phone"`
	LogoPath string `toml:"logo_path"`
}

type StorageConfig struct {
	DataDir      string `toml:"data_dir"`
	DocumentsDir string `toml:"documents_dir"`
	AssetsDir    string `toml:"assets_dir"`
}

type VoucherConfig struct {
	// BaseID seeds the settings table on first init; the allocator reads
	// the live value from settings afterwards.
	BaseID int64 `toml:"base_id"`
}

type LoggingConfig struct {
	Level     string `toml:"level"`
	File      string `toml:"file"`
	MaxSizeMB int    `toml:"max_size_mb"`
	MaxFiles  int    `toml:"max_files"`
}

type LoadOptions struct {
	ConfigPath string
	Env        map[string]string
}

// DBPath is the single store file; its -wal sibling lives next to it.
func (c StorageConfig) DBPath() string {
	return filepath.Join(c.DataDir, "svms.db")
}

func DefaultConfig() (Config, error) {
	home, err := dataHome(LoadOptions{})
	if err != nil {
		return Config{}, err
	}
	return defaultConfigAt(home), nil
}

func defaultConfigAt(home string) Config {
	return Config{
		Shop: ShopConfig{
			Name: defaultShopName,
		},
		Storage: StorageConfig{
			DataDir:      home,
			DocumentsDir: filepath.Join(home, "vouchers"),
			AssetsDir:    filepath.Join(home, "assets"),
		},
		Vouchers: VoucherConfig{
			BaseID: defaultBaseVoucherID,
		},
		Logging: LoggingConfig{
			Level:     defaultLogLevel,
			File:      filepath.Join(home, "logs", "svms.log"),
			MaxSizeMB: defaultLogMaxSizeMB,
			MaxFiles:  defaultLogMaxFiles,
		},
	}
}

func Load(opts LoadOptions) (Config, error) {
	home, err := dataHome(opts)
	if err != nil {
		return Config{}, err
	}
	cfg := defaultConfigAt(home)

	configPath, err := resolveConfigPath(opts)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}
	if err := loadAndApplyFile(configPath, &cfg); err != nil {
		return Config{}, err
	}

	if err := applyEnvOverrides(&cfg, opts); err != nil {
		return Config{}, err
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type rawConfig struct {
	Shop     *rawShop     `toml:"shop"`
	Storage  *rawStorage  `toml:"storage"`
	Vouchers *rawVouchers `toml:"vouchers"`
	Logging  *rawLogging  `toml:"logging"`
}

type rawShop struct {
	Name     *string `toml:"name"`
	Address  *string `toml:"address"`
	Phone    *string `toml:"phone"`
	LogoPath *string `toml:"logo_path"`
}

type rawStorage struct {
	DataDir      *string `toml:"data_dir"`
	DocumentsDir *string `toml:"documents_dir"`
	AssetsDir    *string `toml:"assets_dir"`
}

type rawVouchers struct {
	BaseID *int64 `toml:"base_id"`
}

type rawLogging struct {
	Level     *string `toml:"level"`
	File      *string `toml:"file"`
	MaxSizeMB *int    `toml:"max_size_mb"`
	MaxFiles  *int    `toml:"max_files"`
}

func loadAndApplyFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: parse TOML file %q: %v", ErrInvalidConfig, path, err)
	}

	applyRawConfig(cfg, raw)
	return nil
}

func applyRawConfig(cfg *Config, raw rawConfig) {
	if raw.Shop != nil {
		setString(raw.Shop.Name, &cfg.Shop.Name)
		setString(raw.Shop.Address, &cfg.Shop.Address)
		setString(raw.Shop.Phone, &cfg.Shop.Phone)
		setString(raw.Shop.LogoPath, &cfg.Shop.LogoPath)
	}
	if raw.Storage != nil {
		setString(raw.Storage.DataDir, &cfg.Storage.DataDir)
		setString(raw.Storage.DocumentsDir, &cfg.Storage.DocumentsDir)
		setString(raw.Storage.AssetsDir, &cfg.Storage.AssetsDir)
	}
	if raw.Vouchers != nil {
		if raw.Vouchers.BaseID != nil {
			cfg.Vouchers.BaseID = *raw.Vouchers.BaseID
		}
	}
	if raw.Logging != nil {
		setString(raw.Logging.Level, &cfg.Logging.Level)
		setString(raw.Logging.File, &cfg.Logging.File)
		setInt(raw.Logging.MaxSizeMB, &cfg.Logging.MaxSizeMB)
		setInt(raw.Logging.MaxFiles, &cfg.Logging.MaxFiles)
	}
}

func applyEnvOverrides(cfg *Config, opts LoadOptions) error {
	if value, ok := lookupEnv(opts, "SVMS_SHOP_NAME"); ok {
		cfg.Shop.Name = value
	}
	if value, ok := lookupEnv(opts, "SVMS_SHOP_ADDRESS"); ok {
		cfg.Shop.Address = value
	}
	if value, ok := lookupEnv(opts, "SVMS_SHOP_PHONE"); ok {
		cfg.Shop.Phone = value
	}
	if value, ok := lookupEnv(opts, "SVMS_SHOP_LOGO_PATH"); ok {
		cfg.Shop.LogoPath = value
	}

	if value, ok := lookupEnv(opts, "SVMS_DATA_DIR"); ok {
		cfg.Storage.DataDir = value
	}
	if value, ok := lookupEnv(opts, "SVMS_DOCUMENTS_DIR"); ok {
		cfg.Storage.DocumentsDir = value
	}
	if value, ok := lookupEnv(opts, "SVMS_ASSETS_DIR"); ok {
		cfg.Storage.AssetsDir = value
	}

	if value, ok := lookupEnv(opts, "SVMS_VOUCHER_BASE_ID"); ok {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: parse SVMS_VOUCHER_BASE_ID: %v", ErrInvalidConfig, err)
		}
		cfg.Vouchers.BaseID = parsed
	}

	if value, ok := lookupEnv(opts, "SVMS_LOG_LEVEL"); ok {
		cfg.Logging.Level = value
	}
	if value, ok := lookupEnv(opts, "SVMS_LOG_FILE"); ok {
		cfg.Logging.File = value
	}
	if value, ok := lookupEnv(opts, "SVMS_LOG_MAX_SIZE_MB"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: parse SVMS_LOG_MAX_SIZE_MB: %v", ErrInvalidConfig, err)
		}
		cfg.Logging.MaxSizeMB = parsed
	}
	if value, ok := lookupEnv(opts, "SVMS_LOG_MAX_FILES"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: parse SVMS_LOG_MAX_FILES: %v", ErrInvalidConfig, err)
		}
		cfg.Logging.MaxFiles = parsed
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.Shop.Name == "" {
		return fmt.Errorf("%w: shop.name must not be empty", ErrInvalidConfig)
	}
	if cfg.Storage.DataDir == "" {
		return fmt.Errorf("%w: storage.data_dir must not be empty", ErrInvalidConfig)
	}
	if cfg.Storage.DocumentsDir == "" {
		return fmt.Errorf("%w: storage.documents_dir must not be empty", ErrInvalidConfig)
	}
	if cfg.Vouchers.BaseID <= 0 {
		return fmt.Errorf("%w: vouchers.base_id must be positive", ErrInvalidConfig)
	}
	if cfg.Logging.MaxSizeMB < 0 || cfg.Logging.MaxFiles < 0 {
		return fmt.Errorf("%w: logging rotation limits must not be negative", ErrInvalidConfig)
	}
	return nil
}

func setString(raw *string, target *string) {
	if raw == nil {
		return
	}
	*target = *raw
}

func setInt(raw *int, target *int) {
	if raw == nil {
		return
	}
	*target = *raw
}

func resolveConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigPath != "" {
		return opts.ConfigPath, nil
	}
	if value, ok := lookupEnv(opts, "SVMS_CONFIG_PATH"); ok {
		return value, nil
	}
	return defaultConfigPath()
}

func lookupEnv(opts LoadOptions, key string) (string, bool) {
	if opts.Env != nil {
		if value, ok := opts.Env[key]; ok {
			return value, true
		}
	}
	return os.LookupEnv(key)
}

func dataHome(opts LoadOptions) (string, error) {
	if value, ok := lookupEnv(opts, "SVMS_HOME"); ok {
		return value, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "SVMS"), nil
	}

	dataDir := filepath.Join(home, ".local", "share")
	if xdgDataHome, ok := lookupEnv(opts, "XDG_DATA_HOME"); ok && xdgDataHome != "" {
		dataDir = xdgDataHome
	}
	return filepath.Join(dataDir, "svms"), nil
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "SVMS", "config.toml"), nil
	}

	configHome := filepath.Join(home, ".config")
	if xdgConfigHome, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && xdgConfigHome != "" {
		configHome = xdgConfigHome
	}
	return filepath.Join(configHome, "svms", "config.toml"), nil
}
