package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Every connection gets the same configuration: referential integrity on,
// WAL so readers never block on the single writer, NORMAL durability for a
// local single-disk workstation, and a driver-level busy timeout under the
// retry wrapper. The pragmas ride in the DSN because foreign_keys,
// synchronous, and busy_timeout are per-connection settings; applying them
// through the DSN configures every connection database/sql pools, not just
// the one that served a setup statement.
const connPragmas = `_pragma=busy_timeout(5000)` +
	`&_pragma=foreign_keys(1)` +
	`&_pragma=journal_mode(WAL)` +
	`&_pragma=synchronous(NORMAL)`

// DSN returns the driver connection string for a store file.
func DSN(path string) string {
	return path + "?" + connPragmas
}

type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	Vouchers    VoucherRepository
	Staff       StaffRepository
	Users       UserRepository
	Commissions CommissionRepository
	Settings    SettingsRepository
}

// Open opens (creating if needed) the store file, applies the connection
// configuration, and brings the schema fully current. A migration failure
// is fatal: the handle is closed before the error propagates, so callers
// never hold a partially-migrated store.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("open storage: empty path")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("open storage: create parent dir: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)

	rt := newRetrier(logger)
	if err := rt.Do(context.Background(), "run migrations", func() error {
		return RunMigrations(db, DefaultMigrations())
	}); err != nil {
		logger.Error("schema migration failed", slog.String("path", path), slog.String("error", err.Error()))
		_ = db.Close()
		return nil, err
	}

	if err := rt.Do(context.Background(), "bootstrap admin", func() error {
		return ensureBootstrapAdmin(db)
	}); err != nil {
		logger.Error("admin bootstrap failed", slog.String("error", err.Error()))
		_ = db.Close()
		return nil, err
	}

	if err := ensureDBPermissions(path); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{
		db:     db,
		path:   path,
		logger: logger,
	}
	store.Vouchers = &voucherRepository{db: db, rt: rt}
	store.Staff = &staffRepository{db: db, rt: rt}
	store.Users = &userRepository{db: db, rt: rt}
	store.Commissions = &commissionRepository{db: db, rt: rt}
	store.Settings = &settingsRepository{db: db, rt: rt}

	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SchemaVersion reports the applied schema version for diagnostics.
func (s *Store) SchemaVersion() (int, error) {
	return readSchemaVersion(s.db)
}

func ensureDBPermissions(path string) error {
	if err := os.Chmod(path, 0o600); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("set db file permissions: %w", err)
		}
	}

	walPath := path + "-wal"
	if err := os.Chmod(walPath, 0o600); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("set wal file permissions: %w", err)
		}
	}
	return nil
}
