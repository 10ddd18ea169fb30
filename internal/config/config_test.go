package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	cfg, err := Load(LoadOptions{
		ConfigPath: filepath.Join(home, "does-not-exist.toml"),
		Env:        map[string]string{"SVMS_HOME": home},
	})
	require.NoError(t, err)

	require.Equal(t, defaultShopName, cfg.Shop.Name)
	require.Equal(t, home, cfg.Storage.DataDir)
	require.Equal(t, filepath.Join(home, "svms.db"), cfg.Storage.DBPath())
	require.Equal(t, int64(defaultBaseVoucherID), cfg.Vouchers.BaseID)
	require.Equal(t, defaultLogLevel, cfg.Logging.Level)
}

func TestLoadAppliesTOMLFile(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	configPath := filepath.Join(home, "config.toml")
	content := `
[shop]
name = "Lucky Mobile Repairs"
address = "12 Main Street"
phone = "011-2345678"

[vouchers]
base_id = 50000

[logging]
level = "debug"
max_files = 2
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	cfg, err := Load(LoadOptions{
		ConfigPath: configPath,
		Env:        map[string]string{"SVMS_HOME": home},
	})
	require.NoError(t, err)

	require.Equal(t, "Lucky Mobile Repairs", cfg.Shop.Name)
	require.Equal(t, "12 Main Street", cfg.Shop.Address)
	require.Equal(t, int64(50000), cfg.Vouchers.BaseID)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, 2, cfg.Logging.MaxFiles)
	// Untouched sections keep their defaults.
	require.Equal(t, defaultLogMaxSizeMB, cfg.Logging.MaxSizeMB)
}

func TestLoadEnvOverridesBeatFile(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	configPath := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[vouchers]\nbase_id = 50000\n"), 0o600))

	cfg, err := Load(LoadOptions{
		ConfigPath: configPath,
		Env: map[string]string{
			"SVMS_HOME":            home,
			"SVMS_VOUCHER_BASE_ID": "60000",
			"SVMS_SHOP_NAME":       "Overridden",
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(60000), cfg.Vouchers.BaseID)
	require.Equal(t, "Overridden", cfg.Shop.Name)
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	configPath := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[shop\nname="), 0o600))

	_, err := Load(LoadOptions{
		ConfigPath: configPath,
		Env:        map[string]string{"SVMS_HOME": home},
	})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadRejectsNonPositiveBaseID(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	_, err := Load(LoadOptions{
		ConfigPath: filepath.Join(home, "none.toml"),
		Env: map[string]string{
			"SVMS_HOME":            home,
			"SVMS_VOUCHER_BASE_ID": "0",
		},
	})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadRejectsUnparsableEnvInteger(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	_, err := Load(LoadOptions{
		ConfigPath: filepath.Join(home, "none.toml"),
		Env: map[string]string{
			"SVMS_HOME":            home,
			"SVMS_VOUCHER_BASE_ID": "not-a-number",
		},
	})
	require.ErrorIs(t, err, ErrInvalidConfig)
}
