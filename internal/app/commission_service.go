package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/sui1tyan/Service-Voucher-Management-System-sub000/internal/storage"
)

type CommissionService struct {
	commissions storage.CommissionRepository
	staff       storage.StaffRepository
}

func NewCommissionService(commissions storage.CommissionRepository, staff storage.StaffRepository) *CommissionService {
	return &CommissionService{
		commissions: commissions,
		staff:       staff,
	}
}

// Record books a commission for a staff member, addressed by their unique
// name rather than the internal row id.
func (s *CommissionService) Record(ctx context.Context, req RecordCommissionRequest) (*storage.Commission, error) {
	req.StaffName = strings.TrimSpace(req.StaffName)
	if req.StaffName == "" {
		return nil, fmt.Errorf("%w: staff name is required", ErrValidation)
	}
	if strings.TrimSpace(req.BillNo) == "" {
		return nil, fmt.Errorf("%w: bill number is required", ErrValidation)
	}
	billType := storage.BillType(req.BillType)
	if !billType.Valid() {
		return nil, fmt.Errorf("%w: unknown bill type %q", ErrValidation, req.BillType)
	}
	if req.TotalAmount < 0 || req.CommissionAmount < 0 {
		return nil, fmt.Errorf("%w: amounts cannot be negative", ErrValidation)
	}
	if req.CommissionAmount > req.TotalAmount {
		return nil, fmt.Errorf("%w: commission exceeds bill total", ErrValidation)
	}

	member, err := s.staff.Get(ctx, req.StaffName)
	if err != nil {
		return nil, fmt.Errorf("record commission: %w", err)
	}

	commission := &storage.Commission{
		StaffID:          member.ID,
		BillType:         billType,
		BillNo:           strings.TrimSpace(req.BillNo),
		VoucherID:        strings.TrimSpace(req.VoucherID),
		TotalAmount:      req.TotalAmount,
		CommissionAmount: req.CommissionAmount,
		Note:             strings.TrimSpace(req.Note),
	}
	if err := s.commissions.Create(ctx, commission); err != nil {
		return nil, fmt.Errorf("record commission: %w", err)
	}
	return commission, nil
}

func (s *CommissionService) ListByStaff(ctx context.Context, staffName string) ([]storage.Commission, error) {
	staffName = strings.TrimSpace(staffName)
	if staffName == "" {
		return nil, fmt.Errorf("%w: staff name is required", ErrValidation)
	}
	member, err := s.staff.Get(ctx, staffName)
	if err != nil {
		return nil, fmt.Errorf("list commissions: %w", err)
	}
	commissions, err := s.commissions.ListByStaff(ctx, member.ID)
	if err != nil {
		return nil, fmt.Errorf("list commissions: %w", err)
	}
	return commissions, nil
}

func (s *CommissionService) ListByVoucher(ctx context.Context, voucherID string) ([]storage.Commission, error) {
	voucherID = strings.TrimSpace(voucherID)
	if voucherID == "" {
		return nil, fmt.Errorf("%w: voucher id is required", ErrValidation)
	}
	commissions, err := s.commissions.ListByVoucher(ctx, voucherID)
	if err != nil {
		return nil, fmt.Errorf("list commissions: %w", err)
	}
	return commissions, nil
}

func (s *CommissionService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: commission id is required", ErrValidation)
	}
	if err := s.commissions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete commission: %w", err)
	}
	return nil
}
