package storage

import (
	"context"
	"database/sql"
	"fmt"
)

const commissionColumns = `id, staff_id, bill_type, bill_no, total_amount, commission_amount,
		bill_image_path, voucher_id, note, created_at, updated_at`

type commissionRepository struct {
	db *sql.DB
	rt retrier
}

func (r *commissionRepository) Create(ctx context.Context, commission *Commission) error {
	if commission == nil {
		return fmt.Errorf("create commission: commission is nil")
	}
	if commission.StaffID == "" {
		return fmt.Errorf("create commission: staff id is required")
	}
	if !commission.BillType.Valid() {
		return fmt.Errorf("create commission: invalid bill type %q", commission.BillType)
	}
	if commission.BillNo == "" {
		return fmt.Errorf("create commission: bill number is required")
	}

	commission.ID = ensureID(commission.ID)
	now := nowUTC()
	commission.CreatedAt = now
	commission.UpdatedAt = now

	return r.rt.Do(ctx, "create commission", func() error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO commissions(`+commissionColumns+`)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, commission.ID, commission.StaffID, string(commission.BillType), commission.BillNo,
			commission.TotalAmount, commission.CommissionAmount,
			commission.BillImagePath, commission.VoucherID, commission.Note,
			fmtTime(commission.CreatedAt), fmtTime(commission.UpdatedAt))
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("create commission: unknown staff %s: %w", commission.StaffID, ErrIntegrity)
			}
			return fmt.Errorf("create commission: %w", err)
		}
		return nil
	})
}

func (r *commissionRepository) ListByStaff(ctx context.Context, staffID string) ([]Commission, error) {
	return r.list(ctx, "list commissions by staff", `staff_id = ?`, staffID)
}

func (r *commissionRepository) ListByVoucher(ctx context.Context, voucherID string) ([]Commission, error) {
	return r.list(ctx, "list commissions by voucher", `voucher_id = ?`, voucherID)
}

func (r *commissionRepository) list(ctx context.Context, op, predicate string, arg any) ([]Commission, error) {
	return retryValue(ctx, r.rt, op, func() ([]Commission, error) {
		rows, err := r.db.QueryContext(ctx, `
			SELECT `+commissionColumns+`
			FROM commissions
			WHERE `+predicate+`
			ORDER BY created_at DESC
		`, arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		defer rows.Close()

		var out []Commission
		for rows.Next() {
			commission, err := scanCommission(rows)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			out = append(out, *commission)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("%s: iterate: %w", op, err)
		}
		return out, nil
	})
}

func (r *commissionRepository) Delete(ctx context.Context, id string) error {
	return r.rt.Do(ctx, "delete commission", func() error {
		result, err := r.db.ExecContext(ctx, `DELETE FROM commissions WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete commission: %w", err)
		}
		count, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete commission: rows affected: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return nil
	})
}

type commissionScanner interface {
	Scan(dest ...any) error
}

func scanCommission(scanner commissionScanner) (*Commission, error) {
	var (
		commission Commission
		billType   string
		imagePath  sql.NullString
		voucherID  sql.NullString
		note       sql.NullString
		createdAt  string
		updatedAt  string
	)

	if err := scanner.Scan(&commission.ID, &commission.StaffID, &billType, &commission.BillNo,
		&commission.TotalAmount, &commission.CommissionAmount,
		&imagePath, &voucherID, &note, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	commission.BillType = BillType(billType)
	commission.BillImagePath = imagePath.String
	commission.VoucherID = voucherID.String
	commission.Note = note.String

	var err error
	if commission.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if commission.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &commission, nil
}
