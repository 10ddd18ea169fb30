package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sui1tyan/Service-Voucher-Management-System-sub000/internal/storage"
)

type StaffService struct {
	staff storage.StaffRepository
}

func NewStaffService(staff storage.StaffRepository) *StaffService {
	return &StaffService{staff: staff}
}

func (s *StaffService) Create(ctx context.Context, req CreateStaffRequest) (*storage.Staff, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: staff name is required", ErrValidation)
	}

	member := &storage.Staff{
		Name:     req.Name,
		Position: strings.TrimSpace(req.Position),
		Phone:    strings.TrimSpace(req.Phone),
	}
	if err := s.staff.Create(ctx, member); err != nil {
		if errors.Is(err, storage.ErrDuplicateEntry) {
			return nil, fmt.Errorf("%w: staff %q already exists", ErrValidation, req.Name)
		}
		return nil, fmt.Errorf("create staff: %w", err)
	}
	return member, nil
}

func (s *StaffService) Update(ctx context.Context, req UpdateStaffRequest) (*storage.Staff, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: staff name is required", ErrValidation)
	}

	member, err := s.staff.Get(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("update staff: load existing record: %w", err)
	}
	if req.Position != nil {
		member.Position = strings.TrimSpace(*req.Position)
	}
	if req.Phone != nil {
		member.Phone = strings.TrimSpace(*req.Phone)
	}
	if err := s.staff.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("update staff: %w", err)
	}
	return member, nil
}

// Delete removes the staff member and, through the schema's cascade, every
// commission recorded against them.
func (s *StaffService) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: staff name is required", ErrValidation)
	}
	if err := s.staff.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}
	return nil
}

func (s *StaffService) Get(ctx context.Context, name string) (*storage.Staff, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: staff name is required", ErrValidation)
	}
	member, err := s.staff.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get staff: %w", err)
	}
	return member, nil
}

func (s *StaffService) List(ctx context.Context) ([]storage.Staff, error) {
	members, err := s.staff.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return members, nil
}
