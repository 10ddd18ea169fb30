package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const staffColumns = `id, name, position, staff_no, phone, photo_path, created_at, updated_at`

type staffRepository struct {
	db *sql.DB
	rt retrier
}

func (r *staffRepository) Create(ctx context.Context, staff *Staff) error {
	if staff == nil {
		return fmt.Errorf("create staff: staff is nil")
	}
	if staff.Name == "" {
		return fmt.Errorf("create staff: name is required")
	}

	staff.ID = ensureID(staff.ID)
	now := nowUTC()
	staff.CreatedAt = now
	staff.UpdatedAt = now

	return r.rt.Do(ctx, "create staff", func() error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO staff(`+staffColumns+`)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		`, staff.ID, staff.Name, staff.Position, staff.StaffNo, staff.Phone, staff.PhotoPath,
			fmtTime(staff.CreatedAt), fmtTime(staff.UpdatedAt))
		if err != nil {
			if IsUniqueViolation(err) {
				return fmt.Errorf("create staff %q: %w", staff.Name, ErrDuplicateEntry)
			}
			return fmt.Errorf("create staff: %w", err)
		}
		return nil
	})
}

func (r *staffRepository) Get(ctx context.Context, name string) (*Staff, error) {
	return retryValue(ctx, r.rt, "get staff", func() (*Staff, error) {
		row := r.db.QueryRowContext(ctx, `
			SELECT `+staffColumns+` FROM staff WHERE name = ?
		`, name)

		staff, err := scanStaff(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("get staff: %w", err)
		}
		return staff, nil
	})
}

func (r *staffRepository) List(ctx context.Context) ([]Staff, error) {
	return retryValue(ctx, r.rt, "list staff", func() ([]Staff, error) {
		rows, err := r.db.QueryContext(ctx, `
			SELECT `+staffColumns+` FROM staff ORDER BY name ASC
		`)
		if err != nil {
			return nil, fmt.Errorf("list staff: %w", err)
		}
		defer rows.Close()

		var out []Staff
		for rows.Next() {
			staff, err := scanStaff(rows)
			if err != nil {
				return nil, fmt.Errorf("list staff: %w", err)
			}
			out = append(out, *staff)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("list staff: iterate: %w", err)
		}
		return out, nil
	})
}

func (r *staffRepository) Update(ctx context.Context, staff *Staff) error {
	if staff == nil {
		return fmt.Errorf("update staff: staff is nil")
	}
	if staff.ID == "" {
		return fmt.Errorf("update staff: id is required")
	}

	staff.UpdatedAt = nowUTC()
	return r.rt.Do(ctx, "update staff", func() error {
		result, err := r.db.ExecContext(ctx, `
			UPDATE staff
			SET name = ?, position = ?, staff_no = ?, phone = ?, photo_path = ?, updated_at = ?
			WHERE id = ?
		`, staff.Name, staff.Position, staff.StaffNo, staff.Phone, staff.PhotoPath,
			fmtTime(staff.UpdatedAt), staff.ID)
		if err != nil {
			if IsUniqueViolation(err) {
				return fmt.Errorf("update staff %q: %w", staff.Name, ErrDuplicateEntry)
			}
			return fmt.Errorf("update staff: %w", err)
		}
		count, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update staff: rows affected: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Delete removes the staff row; its commissions go with it through the
// cascading foreign key.
func (r *staffRepository) Delete(ctx context.Context, name string) error {
	return r.rt.Do(ctx, "delete staff", func() error {
		result, err := r.db.ExecContext(ctx, `DELETE FROM staff WHERE name = ?`, name)
		if err != nil {
			return fmt.Errorf("delete staff: %w", err)
		}
		count, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete staff: rows affected: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return nil
	})
}

type staffScanner interface {
	Scan(dest ...any) error
}

func scanStaff(scanner staffScanner) (*Staff, error) {
	var (
		staff     Staff
		position  sql.NullString
		staffNo   sql.NullString
		phone     sql.NullString
		photoPath sql.NullString
		createdAt string
		updatedAt string
	)

	if err := scanner.Scan(&staff.ID, &staff.Name, &position, &staffNo, &phone, &photoPath, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	staff.Position = position.String
	staff.StaffNo = staffNo.String
	staff.Phone = phone.String
	staff.PhotoPath = photoPath.String

	var err error
	if staff.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if staff.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &staff, nil
}
