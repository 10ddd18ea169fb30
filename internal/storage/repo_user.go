package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const userColumns = `id, username, role, password_hash, active, must_change_password, created_at, updated_at`

type userRepository struct {
	db *sql.DB
	rt retrier
}

func (r *userRepository) Create(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("create user: user is nil")
	}
	if user.Username == "" {
		return fmt.Errorf("create user: username is required")
	}
	if !user.Role.Valid() {
		return fmt.Errorf("create user: invalid role %q", user.Role)
	}
	if user.PasswordHash == "" {
		return fmt.Errorf("create user: password hash is required")
	}

	user.ID = ensureID(user.ID)
	now := nowUTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	return r.rt.Do(ctx, "create user", func() error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO users(`+userColumns+`)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		`, user.ID, user.Username, string(user.Role), user.PasswordHash,
			boolToInt(user.Active), boolToInt(user.MustChangePassword),
			fmtTime(user.CreatedAt), fmtTime(user.UpdatedAt))
		if err != nil {
			if IsUniqueViolation(err) {
				return fmt.Errorf("create user %q: %w", user.Username, ErrDuplicateEntry)
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return retryValue(ctx, r.rt, "get user", func() (*User, error) {
		row := r.db.QueryRowContext(ctx, `
			SELECT `+userColumns+` FROM users WHERE username = ?
		`, username)

		user, err := scanUser(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("get user: %w", err)
		}
		return user, nil
	})
}

func (r *userRepository) List(ctx context.Context) ([]User, error) {
	return retryValue(ctx, r.rt, "list users", func() ([]User, error) {
		rows, err := r.db.QueryContext(ctx, `
			SELECT `+userColumns+` FROM users ORDER BY username ASC
		`)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		defer rows.Close()

		var out []User
		for rows.Next() {
			user, err := scanUser(rows)
			if err != nil {
				return nil, fmt.Errorf("list users: %w", err)
			}
			out = append(out, *user)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("list users: iterate: %w", err)
		}
		return out, nil
	})
}

// SetPasswordHash stores a new hash and the resulting forced-change state
// in one step, so a rotation can never leave the flag behind.
func (r *userRepository) SetPasswordHash(ctx context.Context, username, hash string, mustChange bool) error {
	if hash == "" {
		return fmt.Errorf("set password hash: hash is required")
	}

	return r.rt.Do(ctx, "set password hash", func() error {
		result, err := r.db.ExecContext(ctx, `
			UPDATE users SET password_hash = ?, must_change_password = ?, updated_at = ?
			WHERE username = ?
		`, hash, boolToInt(mustChange), fmtTime(nowUTC()), username)
		if err != nil {
			return fmt.Errorf("set password hash: %w", err)
		}
		count, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("set password hash: rows affected: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *userRepository) SetActive(ctx context.Context, username string, active bool) error {
	return r.rt.Do(ctx, "set user active", func() error {
		result, err := r.db.ExecContext(ctx, `
			UPDATE users SET active = ?, updated_at = ? WHERE username = ?
		`, boolToInt(active), fmtTime(nowUTC()), username)
		if err != nil {
			return fmt.Errorf("set user active: %w", err)
		}
		count, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("set user active: rows affected: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *userRepository) CountByRole(ctx context.Context, role UserRole) (int64, error) {
	return retryValue(ctx, r.rt, "count users by role", func() (int64, error) {
		var count int64
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ?`, string(role)).Scan(&count); err != nil {
			return 0, fmt.Errorf("count users by role: %w", err)
		}
		return count, nil
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type userScanner interface {
	Scan(dest ...any) error
}

func scanUser(scanner userScanner) (*User, error) {
	var (
		user       User
		role       string
		active     int
		mustChange int
		createdAt  string
		updatedAt  string
	)

	if err := scanner.Scan(&user.ID, &user.Username, &role, &user.PasswordHash, &active, &mustChange, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	user.Role = UserRole(role)
	user.Active = active != 0
	user.MustChangePassword = mustChange != 0

	var err error
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}
