package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sui1tyan/Service-Voucher-Management-System-sub000/internal/document"
	"github.com/sui1tyan/Service-Voucher-Management-System-sub000/internal/storage"
)

// allocation retries cover the window between reading the current maximum
// voucher number and inserting the new row, where another writer can take
// the same number.
const maxAllocationAttempts = 5

// DocumentGenerator renders the printable voucher for a created record.
type DocumentGenerator interface {
	Generate(data document.VoucherData) (string, error)
	Path(voucherID string) string
}

type VoucherService struct {
	vouchers storage.VoucherRepository
	docs     DocumentGenerator
	logger   *slog.Logger
}

func NewVoucherService(vouchers storage.VoucherRepository, docs DocumentGenerator, logger *slog.Logger) *VoucherService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &VoucherService{
		vouchers: vouchers,
		docs:     docs,
		logger:   logger,
	}
}

// Create allocates the next voucher number, renders the document, and
// inserts the record. If another writer claims the same number between
// allocation and insert, the whole sequence is rerun with a fresh number
// and the orphaned document is removed. A voucher is never recorded
// without its document.
func (s *VoucherService) Create(ctx context.Context, req CreateVoucherRequest) (*storage.Voucher, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if req.CustomerName == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrValidation)
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAllocationAttempts; attempt++ {
		id, err := s.vouchers.NextVoucherID(ctx)
		if err != nil {
			return nil, fmt.Errorf("create voucher: allocate number: %w", err)
		}

		docPath, err := s.docs.Generate(document.VoucherData{
			VoucherID:    id,
			CustomerName: req.CustomerName,
			ContactNo:    req.ContactNo,
			Quantity:     req.Quantity,
			Particulars:  req.Particulars,
			Problem:      req.Problem,
			ReceivedBy:   req.ReceivedBy,
			IssuedAt:     time.Now(),
		})
		if err != nil {
			return nil, fmt.Errorf("create voucher %s: %w", id, err)
		}

		voucher := &storage.Voucher{
			VoucherID:    id,
			CustomerName: req.CustomerName,
			ContactNo:    req.ContactNo,
			Quantity:     req.Quantity,
			Particulars:  req.Particulars,
			Problem:      req.Problem,
			ReceivedBy:   req.ReceivedBy,
			DocumentPath: docPath,
		}
		err = s.vouchers.Create(ctx, voucher)
		if err == nil {
			return voucher, nil
		}
		if !storage.IsUniqueViolation(err) {
			_ = os.Remove(docPath)
			return nil, fmt.Errorf("create voucher: %w", err)
		}

		// Lost the race for this number; discard its document and rerun.
		_ = os.Remove(docPath)
		lastErr = err
		s.logger.Warn("voucher number taken, reallocating",
			slog.String("voucher_id", id),
			slog.Int("attempt", attempt+1),
		)
	}
	return nil, fmt.Errorf("create voucher: number allocation kept colliding: %w", lastErr)
}

func (s *VoucherService) Get(ctx context.Context, voucherID string) (*storage.Voucher, error) {
	voucherID = strings.TrimSpace(voucherID)
	if voucherID == "" {
		return nil, fmt.Errorf("%w: voucher id is required", ErrValidation)
	}
	voucher, err := s.vouchers.Get(ctx, voucherID)
	if err != nil {
		return nil, fmt.Errorf("get voucher: %w", err)
	}
	return voucher, nil
}

func (s *VoucherService) Search(ctx context.Context, filter storage.VoucherFilter) ([]storage.Voucher, error) {
	results, err := s.vouchers.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search vouchers: %w", err)
	}
	return results, nil
}

func (s *VoucherService) UpdateOutcome(ctx context.Context, req UpdateVoucherOutcomeRequest) error {
	req.VoucherID = strings.TrimSpace(req.VoucherID)
	if req.VoucherID == "" {
		return fmt.Errorf("%w: voucher id is required", ErrValidation)
	}
	status := storage.VoucherStatus(req.Status)
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
	}
	if err := s.vouchers.UpdateOutcome(ctx, req.VoucherID, status, req.Solution, req.Technician); err != nil {
		return fmt.Errorf("update voucher outcome: %w", err)
	}
	return nil
}

// RecordReminder stamps the next free reminder slot with the current time.
func (s *VoucherService) RecordReminder(ctx context.Context, voucherID string) error {
	voucherID = strings.TrimSpace(voucherID)
	if voucherID == "" {
		return fmt.Errorf("%w: voucher id is required", ErrValidation)
	}
	if err := s.vouchers.RecordReminder(ctx, voucherID, time.Now().UTC()); err != nil {
		return fmt.Errorf("record reminder: %w", err)
	}
	return nil
}

func (s *VoucherService) Count(ctx context.Context) (int64, error) {
	count, err := s.vouchers.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count vouchers: %w", err)
	}
	return count, nil
}
