package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sui1tyan/Service-Voucher-Management-System-sub000/internal/document"
	"github.com/sui1tyan/Service-Voucher-Management-System-sub000/internal/storage"
)

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "svms.db")
	store, err := storage.Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// stubGenerator writes a placeholder file instead of rendering a real PDF
// and lets tests interpose on each call.
type stubGenerator struct {
	dir        string
	beforeEach func(data document.VoucherData)
	failWith   error
	calls      int
}

func (g *stubGenerator) Path(voucherID string) string {
	return filepath.Join(g.dir, "voucher_"+voucherID+".pdf")
}

func (g *stubGenerator) Generate(data document.VoucherData) (string, error) {
	g.calls++
	if g.beforeEach != nil {
		g.beforeEach(data)
	}
	if g.failWith != nil {
		return "", g.failWith
	}
	path := g.Path(data.VoucherID)
	if err := os.WriteFile(path, []byte("%PDF-stub"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func newVoucherFixture(t *testing.T) (*storage.Store, *stubGenerator, *VoucherService) {
	t.Helper()

	store := openTestStore(t)
	gen := &stubGenerator{dir: t.TempDir()}
	return store, gen, NewVoucherService(store.Vouchers, gen, nil)
}

func TestVoucherCreateAllocatesNumberAndDocument(t *testing.T) {
	t.Parallel()

	_, gen, svc := newVoucherFixture(t)
	ctx := context.Background()

	voucher, err := svc.Create(ctx, CreateVoucherRequest{
		CustomerName: "Nur Aminah",
		ContactNo:    "012-3456789",
		Particulars:  "Laptop",
		Problem:      "No power",
		ReceivedBy:   "Ravi",
	})
	require.NoError(t, err)
	require.Equal(t, "41000", voucher.VoucherID)
	require.Equal(t, 1, voucher.Quantity)
	require.Equal(t, gen.Path("41000"), voucher.DocumentPath)
	require.FileExists(t, voucher.DocumentPath)

	next, err := svc.Create(ctx, CreateVoucherRequest{CustomerName: "Ravi Kumar"})
	require.NoError(t, err)
	require.Equal(t, "41001", next.VoucherID)
}

func TestVoucherCreateRequiresCustomerName(t *testing.T) {
	t.Parallel()

	_, gen, svc := newVoucherFixture(t)

	_, err := svc.Create(context.Background(), CreateVoucherRequest{CustomerName: "   "})
	require.ErrorIs(t, err, ErrValidation)
	require.Zero(t, gen.calls)
}

func TestVoucherCreateFailsWhenDocumentFails(t *testing.T) {
	t.Parallel()

	store, gen, svc := newVoucherFixture(t)
	gen.failWith = errors.New("render blew up")
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateVoucherRequest{CustomerName: "Siti"})
	require.Error(t, err)

	// No record without its document.
	count, err := store.Vouchers.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestVoucherCreateRetriesWholeSequenceOnCollision(t *testing.T) {
	t.Parallel()

	store, gen, svc := newVoucherFixture(t)
	ctx := context.Background()

	// A rival writer grabs the allocated number before our insert lands.
	stolen := false
	gen.beforeEach = func(data document.VoucherData) {
		if stolen {
			return
		}
		stolen = true
		require.NoError(t, store.Vouchers.Create(ctx, &storage.Voucher{
			VoucherID:    data.VoucherID,
			CustomerName: "Rival Writer",
		}))
	}

	voucher, err := svc.Create(ctx, CreateVoucherRequest{CustomerName: "Siti"})
	require.NoError(t, err)
	require.Equal(t, 2, gen.calls)
	require.Equal(t, "41001", voucher.VoucherID)

	// The first attempt's orphaned document is gone.
	_, statErr := os.Stat(gen.Path("41000"))
	require.True(t, os.IsNotExist(statErr))
	require.FileExists(t, gen.Path("41001"))
}

func TestVoucherUpdateOutcomeAndReminder(t *testing.T) {
	t.Parallel()

	_, _, svc := newVoucherFixture(t)
	ctx := context.Background()

	voucher, err := svc.Create(ctx, CreateVoucherRequest{CustomerName: "Siti"})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateOutcome(ctx, UpdateVoucherOutcomeRequest{
		VoucherID:  voucher.VoucherID,
		Status:     "Completed",
		Solution:   "Replaced fuse",
		Technician: "Ravi",
	}))

	err = svc.UpdateOutcome(ctx, UpdateVoucherOutcomeRequest{VoucherID: voucher.VoucherID, Status: "Lost"})
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.RecordReminder(ctx, voucher.VoucherID))
	loaded, err := svc.Get(ctx, voucher.VoucherID)
	require.NoError(t, err)
	require.Equal(t, storage.StatusCompleted, loaded.Status)
	require.NotNil(t, loaded.Reminder1At)
}

func TestVoucherSearchPassesFilterThrough(t *testing.T) {
	t.Parallel()

	_, _, svc := newVoucherFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateVoucherRequest{CustomerName: "Nur Aminah"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateVoucherRequest{CustomerName: "Ravi Kumar"})
	require.NoError(t, err)

	results, err := svc.Search(ctx, storage.VoucherFilter{CustomerContains: "aminah"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Nur Aminah", results[0].CustomerName)
}

func TestAuthenticateFlows(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	svc := NewUserService(store.Users)
	ctx := context.Background()

	admin, err := svc.Authenticate(ctx, storage.DefaultAdminUsername, storage.DefaultAdminPassword)
	require.NoError(t, err)
	require.True(t, admin.MustChangePassword)

	_, err = svc.Authenticate(ctx, storage.DefaultAdminUsername, "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "ghost", storage.DefaultAdminPassword)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRejectsInactiveUser(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	svc := NewUserService(store.Users)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "cashier",
		Password: "Str0ng-pass!x",
		Role:     "sales_assistant",
	})
	require.NoError(t, err)
	require.NoError(t, svc.SetActive(ctx, "cashier", false))

	_, err = svc.Authenticate(ctx, "cashier", "Str0ng-pass!x")
	require.ErrorIs(t, err, ErrUserInactive)
}

func TestChangePasswordClearsForcedRotation(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	svc := NewUserService(store.Users)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, storage.DefaultAdminUsername, "wrong-current", "N3w-Secret!pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	err = svc.ChangePassword(ctx, storage.DefaultAdminUsername, storage.DefaultAdminPassword, "weak")
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, storage.DefaultAdminUsername, storage.DefaultAdminPassword, "N3w-Secret!pass"))

	admin, err := svc.Authenticate(ctx, storage.DefaultAdminUsername, "N3w-Secret!pass")
	require.NoError(t, err)
	require.False(t, admin.MustChangePassword)

	_, err = svc.Authenticate(ctx, storage.DefaultAdminUsername, storage.DefaultAdminPassword)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUserEnforcesPolicyAndRole(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	svc := NewUserService(store.Users)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserRequest{Username: "x", Password: "short", Role: "user"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateUser(ctx, CreateUserRequest{Username: "x", Password: "Str0ng-pass!x", Role: "wizard"})
	require.ErrorIs(t, err, ErrValidation)

	user, err := svc.CreateUser(ctx, CreateUserRequest{Username: "tech1", Password: "Str0ng-pass!x", Role: "technician"})
	require.NoError(t, err)
	require.True(t, user.MustChangePassword)
}

func TestStaffServiceLifecycle(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	svc := NewStaffService(store.Staff)
	ctx := context.Background()

	member, err := svc.Create(ctx, CreateStaffRequest{Name: "  Aminah  ", Position: "Technician"})
	require.NoError(t, err)
	require.Equal(t, "Aminah", member.Name)

	_, err = svc.Create(ctx, CreateStaffRequest{Name: "Aminah"})
	require.ErrorIs(t, err, ErrValidation)

	position := "Senior Technician"
	updated, err := svc.Update(ctx, UpdateStaffRequest{Name: "Aminah", Position: &position})
	require.NoError(t, err)
	require.Equal(t, "Senior Technician", updated.Position)

	members, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, members, 1)

	require.NoError(t, svc.Delete(ctx, "Aminah"))
	_, err = svc.Get(ctx, "Aminah")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCommissionServiceRecordAndList(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	staffSvc := NewStaffService(store.Staff)
	svc := NewCommissionService(store.Commissions, store.Staff)
	ctx := context.Background()

	_, err := staffSvc.Create(ctx, CreateStaffRequest{Name: "Ravi"})
	require.NoError(t, err)

	commission, err := svc.Record(ctx, RecordCommissionRequest{
		StaffName:        "Ravi",
		BillType:         "INV",
		BillNo:           "INV-42",
		VoucherID:        "41000",
		TotalAmount:      300,
		CommissionAmount: 30,
	})
	require.NoError(t, err)
	require.NotEmpty(t, commission.ID)

	byStaff, err := svc.ListByStaff(ctx, "Ravi")
	require.NoError(t, err)
	require.Len(t, byStaff, 1)

	byVoucher, err := svc.ListByVoucher(ctx, "41000")
	require.NoError(t, err)
	require.Len(t, byVoucher, 1)

	require.NoError(t, svc.Delete(ctx, commission.ID))
	byStaff, err = svc.ListByStaff(ctx, "Ravi")
	require.NoError(t, err)
	require.Empty(t, byStaff)
}

func TestCommissionServiceValidation(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	svc := NewCommissionService(store.Commissions, store.Staff)
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordCommissionRequest{StaffName: "", BillType: "INV", BillNo: "1"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Record(ctx, RecordCommissionRequest{StaffName: "Ravi", BillType: "RECEIPT", BillNo: "1"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Record(ctx, RecordCommissionRequest{
		StaffName: "Ravi", BillType: "CS", BillNo: "1",
		TotalAmount: 10, CommissionAmount: 20,
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Record(ctx, RecordCommissionRequest{StaffName: "Ghost", BillType: "CS", BillNo: "1"})
	require.ErrorIs(t, err, storage.ErrNotFound)
}
