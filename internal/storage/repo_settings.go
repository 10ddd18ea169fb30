package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type settingsRepository struct {
	db *sql.DB
	rt retrier
}

func (r *settingsRepository) Get(ctx context.Context, key string) (string, error) {
	return retryValue(ctx, r.rt, "get setting", func() (string, error) {
		var value string
		err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		if err != nil {
			return "", fmt.Errorf("get setting %q: %w", key, err)
		}
		return value, nil
	})
}

func (r *settingsRepository) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("set setting: key is required")
	}
	return r.rt.Do(ctx, "set setting", func() error {
		if _, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO settings(key, value) VALUES(?, ?)`, key, value); err != nil {
			return fmt.Errorf("set setting %q: %w", key, err)
		}
		return nil
	})
}

// SetIfAbsent seeds a tunable without clobbering an operator-changed value.
func (r *settingsRepository) SetIfAbsent(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("set setting: key is required")
	}
	return r.rt.Do(ctx, "seed setting", func() error {
		if _, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO settings(key, value) VALUES(?, ?)`, key, value); err != nil {
			return fmt.Errorf("seed setting %q: %w", key, err)
		}
		return nil
	})
}
