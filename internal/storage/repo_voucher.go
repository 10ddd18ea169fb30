package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// displayDateLayout is the day-month-year form the search fields accept.
const displayDateLayout = "02-01-2006"

// numericVoucherIDs restricts aggregate reads to identifiers that convert
// cleanly to integers, so legacy non-numeric identifiers never poison the
// allocator.
const numericVoucherIDs = `voucher_id <> '' AND voucher_id NOT GLOB '*[^0-9]*'`

const voucherColumns = `voucher_id, customer_name, contact_no, quantity, particulars, problem, solution,
		received_by, technician, status, document_path, bill_ref_no, amount, commission_amount,
		reminder1_at, reminder2_at, reminder3_at, created_at, updated_at`

type voucherRepository struct {
	db *sql.DB
	rt retrier
}

func (r *voucherRepository) Create(ctx context.Context, voucher *Voucher) error {
	if voucher == nil {
		return fmt.Errorf("create voucher: voucher is nil")
	}
	if voucher.VoucherID == "" {
		return fmt.Errorf("create voucher: voucher id is required")
	}
	if voucher.CustomerName == "" {
		return fmt.Errorf("create voucher: customer name is required")
	}
	if voucher.Quantity <= 0 {
		voucher.Quantity = 1
	}
	if voucher.Status == "" {
		voucher.Status = StatusPending
	}
	if !voucher.Status.Valid() {
		return fmt.Errorf("create voucher: invalid status %q", voucher.Status)
	}

	now := nowUTC()
	voucher.CreatedAt = now
	voucher.UpdatedAt = now

	return r.rt.Do(ctx, "create voucher", func() error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO vouchers(`+voucherColumns+`)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			voucher.VoucherID, voucher.CustomerName, voucher.ContactNo, voucher.Quantity,
			voucher.Particulars, voucher.Problem, voucher.Solution,
			voucher.ReceivedBy, voucher.Technician, string(voucher.Status),
			voucher.DocumentPath, voucher.BillRefNo, voucher.Amount, voucher.CommissionAmount,
			fmtNullableTime(voucher.Reminder1At), fmtNullableTime(voucher.Reminder2At), fmtNullableTime(voucher.Reminder3At),
			fmtTime(voucher.CreatedAt), fmtTime(voucher.UpdatedAt),
		)
		if err != nil {
			if IsUniqueViolation(err) {
				return fmt.Errorf("create voucher %s: %w", voucher.VoucherID, ErrVoucherIDTaken)
			}
			return fmt.Errorf("create voucher: %w", err)
		}
		return nil
	})
}

func (r *voucherRepository) Get(ctx context.Context, voucherID string) (*Voucher, error) {
	return retryValue(ctx, r.rt, "get voucher", func() (*Voucher, error) {
		row := r.db.QueryRowContext(ctx, `
			SELECT `+voucherColumns+`
			FROM vouchers
			WHERE voucher_id = ?
		`, voucherID)

		voucher, err := scanVoucher(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("get voucher: %w", err)
		}
		return voucher, nil
	})
}

// Search composes a parameterized predicate from the optional criteria.
// Every value travels as a bound parameter; criteria left at their zero
// value impose no constraint, and an unparsable date is dropped rather
// than failed, since it is user-entered text.
func (r *voucherRepository) Search(ctx context.Context, filter VoucherFilter) ([]Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE 1=1`
	args := []any{}

	if filter.IDContains != "" {
		query += ` AND voucher_id LIKE ?`
		args = append(args, "%"+filter.IDContains+"%")
	}
	if filter.CustomerContains != "" {
		query += ` AND LOWER(customer_name) LIKE ?`
		args = append(args, "%"+strings.ToLower(filter.CustomerContains)+"%")
	}
	if filter.ContactContains != "" {
		query += ` AND contact_no LIKE ?`
		args = append(args, "%"+filter.ContactContains+"%")
	}
	if filter.Status != "" && filter.Status != StatusAll {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if from, ok := parseDisplayDate(filter.DateFrom); ok {
		query += ` AND date(created_at) >= ?`
		args = append(args, from)
	}
	if to, ok := parseDisplayDate(filter.DateTo); ok {
		query += ` AND date(created_at) <= ?`
		args = append(args, to)
	}

	query += ` ORDER BY created_at DESC`

	return retryValue(ctx, r.rt, "search vouchers", func() ([]Voucher, error) {
		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("search vouchers: %w", err)
		}
		defer rows.Close()

		var out []Voucher
		for rows.Next() {
			voucher, err := scanVoucher(rows)
			if err != nil {
				return nil, fmt.Errorf("search vouchers: %w", err)
			}
			out = append(out, *voucher)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("search vouchers: iterate: %w", err)
		}
		return out, nil
	})
}

// NextVoucherID computes max-plus-one over the numeric identifiers, or the
// configured base for an empty (or entirely non-numeric) table. The UNIQUE
// constraint on voucher_id is the backstop for the allocate-then-insert
// race: callers catch ErrVoucherIDTaken and rerun the whole sequence.
func (r *voucherRepository) NextVoucherID(ctx context.Context) (string, error) {
	return retryValue(ctx, r.rt, "next voucher id", func() (string, error) {
		var max sql.NullInt64
		err := r.db.QueryRowContext(ctx, `
			SELECT MAX(CAST(voucher_id AS INTEGER))
			FROM vouchers
			WHERE `+numericVoucherIDs+`
		`).Scan(&max)
		if err != nil {
			return "", fmt.Errorf("next voucher id: %w", err)
		}
		if max.Valid {
			return strconv.FormatInt(max.Int64+1, 10), nil
		}

		base, err := r.baseVoucherID(ctx)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(base, 10), nil
	})
}

func (r *voucherRepository) baseVoucherID(ctx context.Context) (int64, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, SettingBaseVoucherID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultBaseVoucherID, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read base voucher id: %w", err)
	}

	base, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return DefaultBaseVoucherID, nil
	}
	return base, nil
}

// UpdateOutcome mutates the only fields that change after creation.
func (r *voucherRepository) UpdateOutcome(ctx context.Context, voucherID string, status VoucherStatus, solution, technician string) error {
	if !status.Valid() {
		return fmt.Errorf("update voucher outcome: invalid status %q", status)
	}

	return r.rt.Do(ctx, "update voucher outcome", func() error {
		result, err := r.db.ExecContext(ctx, `
			UPDATE vouchers
			SET status = ?, solution = ?, technician = ?, updated_at = ?
			WHERE voucher_id = ?
		`, string(status), solution, technician, fmtTime(nowUTC()), voucherID)
		if err != nil {
			return fmt.Errorf("update voucher outcome: %w", err)
		}
		count, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update voucher outcome: rows affected: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *voucherRepository) SetDocumentPath(ctx context.Context, voucherID, path string) error {
	return r.rt.Do(ctx, "set voucher document path", func() error {
		result, err := r.db.ExecContext(ctx, `
			UPDATE vouchers SET document_path = ?, updated_at = ? WHERE voucher_id = ?
		`, path, fmtTime(nowUTC()), voucherID)
		if err != nil {
			return fmt.Errorf("set voucher document path: %w", err)
		}
		count, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("set voucher document path: rows affected: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// RecordReminder stamps the first free of the three pickup-reminder slots.
func (r *voucherRepository) RecordReminder(ctx context.Context, voucherID string, at time.Time) error {
	return r.rt.Do(ctx, "record voucher reminder", func() error {
		for _, column := range []string{"reminder1_at", "reminder2_at", "reminder3_at"} {
			result, err := r.db.ExecContext(ctx, `
				UPDATE vouchers SET `+column+` = ?, updated_at = ?
				WHERE voucher_id = ? AND `+column+` IS NULL
			`, fmtTime(at), fmtTime(nowUTC()), voucherID)
			if err != nil {
				return fmt.Errorf("record voucher reminder: %w", err)
			}
			count, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("record voucher reminder: rows affected: %w", err)
			}
			if count > 0 {
				return nil
			}
		}

		var exists int64
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vouchers WHERE voucher_id = ?`, voucherID).Scan(&exists); err != nil {
			return fmt.Errorf("record voucher reminder: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}
		return fmt.Errorf("record voucher reminder: all reminder slots used for %s", voucherID)
	})
}

func (r *voucherRepository) Count(ctx context.Context) (int64, error) {
	return retryValue(ctx, r.rt, "count vouchers", func() (int64, error) {
		var count int64
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vouchers`).Scan(&count); err != nil {
			return 0, fmt.Errorf("count vouchers: %w", err)
		}
		return count, nil
	})
}

// parseDisplayDate returns the canonical YYYY-MM-DD form for a display
// date, or ok=false when the input is empty or unparsable.
func parseDisplayDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	t, err := time.Parse(displayDateLayout, raw)
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

type voucherScanner interface {
	Scan(dest ...any) error
}

func scanVoucher(scanner voucherScanner) (*Voucher, error) {
	var (
		voucher     Voucher
		contactNo   sql.NullString
		particulars sql.NullString
		problem     sql.NullString
		solution    sql.NullString
		receivedBy  sql.NullString
		technician  sql.NullString
		status      string
		docPath     sql.NullString
		billRefNo   sql.NullString
		reminder1   sql.NullString
		reminder2   sql.NullString
		reminder3   sql.NullString
		createdAt   string
		updatedAt   string
	)

	if err := scanner.Scan(
		&voucher.VoucherID, &voucher.CustomerName, &contactNo, &voucher.Quantity,
		&particulars, &problem, &solution,
		&receivedBy, &technician, &status,
		&docPath, &billRefNo, &voucher.Amount, &voucher.CommissionAmount,
		&reminder1, &reminder2, &reminder3,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	voucher.ContactNo = contactNo.String
	voucher.Particulars = particulars.String
	voucher.Problem = problem.String
	voucher.Solution = solution.String
	voucher.ReceivedBy = receivedBy.String
	voucher.Technician = technician.String
	voucher.Status = VoucherStatus(status)
	voucher.DocumentPath = docPath.String
	voucher.BillRefNo = billRefNo.String

	var err error
	if voucher.Reminder1At, err = parseNullableTime(reminder1); err != nil {
		return nil, err
	}
	if voucher.Reminder2At, err = parseNullableTime(reminder2); err != nil {
		return nil, err
	}
	if voucher.Reminder3At, err = parseNullableTime(reminder3); err != nil {
		return nil, err
	}

	if voucher.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if voucher.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &voucher, nil
}
