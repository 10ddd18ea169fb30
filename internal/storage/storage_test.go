package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/sui1tyan/Service-Voucher-Management-System-sub000/internal/auth"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "svms.db")
	store, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func openRawTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "svms.db")
	db, err := sql.Open("sqlite", DSN(path))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&count)
	require.NoError(t, err)
	return count > 0
}

func mustSchemaVersion(t *testing.T, db *sql.DB) int {
	t.Helper()

	version, err := readSchemaVersion(db)
	require.NoError(t, err)
	return version
}

func TestOpenBootstrapsDefaultAdmin(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	admin, err := store.Users.GetByUsername(ctx, DefaultAdminUsername)
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, admin.Role)
	require.True(t, admin.Active)
	require.True(t, admin.MustChangePassword)
	require.True(t, auth.VerifyPassword(DefaultAdminPassword, admin.PasswordHash))
}

func TestReopenDoesNotDuplicateAdmin(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "svms.db")
	store, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	count, err := store.Users.CountByRole(context.Background(), RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestStaffCRUD(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	staff := &Staff{Name: "Aminah", Position: "Technician", Phone: "012-3456789"}
	require.NoError(t, store.Staff.Create(ctx, staff))
	require.NotEmpty(t, staff.ID)

	loaded, err := store.Staff.Get(ctx, "Aminah")
	require.NoError(t, err)
	require.Equal(t, "Technician", loaded.Position)

	loaded.Position = "Senior Technician"
	require.NoError(t, store.Staff.Update(ctx, loaded))

	all, err := store.Staff.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "Senior Technician", all[0].Position)

	require.NoError(t, store.Staff.Delete(ctx, "Aminah"))
	_, err = store.Staff.Get(ctx, "Aminah")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStaffNameIsUnique(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Staff.Create(ctx, &Staff{Name: "Aminah"}))
	err := store.Staff.Create(ctx, &Staff{Name: "Aminah"})
	require.ErrorIs(t, err, ErrDuplicateEntry)
}

func TestDeleteStaffCascadesCommissions(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	staff := &Staff{Name: "Ravi"}
	require.NoError(t, store.Staff.Create(ctx, staff))

	commission := &Commission{
		StaffID:          staff.ID,
		BillType:         BillTypeCS,
		BillNo:           "CS-1001",
		TotalAmount:      250,
		CommissionAmount: 25,
	}
	require.NoError(t, store.Commissions.Create(ctx, commission))

	require.NoError(t, store.Staff.Delete(ctx, "Ravi"))

	remaining, err := store.Commissions.ListByStaff(ctx, staff.ID)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestCommissionRequiresKnownStaff(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	err := store.Commissions.Create(context.Background(), &Commission{
		StaffID:  "no-such-staff",
		BillType: BillTypeINV,
		BillNo:   "INV-1",
	})
	require.ErrorIs(t, err, ErrIntegrity)
}

func TestCommissionRejectsUnknownBillType(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	err := store.Commissions.Create(context.Background(), &Commission{
		StaffID:  "some-staff",
		BillType: "RECEIPT",
		BillNo:   "R-1",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid bill type")
}

func TestCommissionListByVoucher(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	staff := &Staff{Name: "Mei Ling"}
	require.NoError(t, store.Staff.Create(ctx, staff))

	first := &Commission{StaffID: staff.ID, BillType: BillTypeINV, BillNo: "INV-7", VoucherID: "41000"}
	second := &Commission{StaffID: staff.ID, BillType: BillTypeCS, BillNo: "CS-8", VoucherID: "41001"}
	require.NoError(t, store.Commissions.Create(ctx, first))
	require.NoError(t, store.Commissions.Create(ctx, second))

	forVoucher, err := store.Commissions.ListByVoucher(ctx, "41000")
	require.NoError(t, err)
	require.Len(t, forVoucher, 1)
	require.Equal(t, "INV-7", forVoucher[0].BillNo)

	require.NoError(t, store.Commissions.Delete(ctx, first.ID))
	forVoucher, err = store.Commissions.ListByVoucher(ctx, "41000")
	require.NoError(t, err)
	require.Empty(t, forVoucher)
}

func TestUserLifecycle(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	hash, err := auth.HashPassword("Str0ng-enough!")
	require.NoError(t, err)

	user := &User{Username: "cashier", Role: RoleSalesAssistant, PasswordHash: hash, Active: true}
	require.NoError(t, store.Users.Create(ctx, user))

	err = store.Users.Create(ctx, &User{Username: "cashier", Role: RoleUser, PasswordHash: hash})
	require.ErrorIs(t, err, ErrDuplicateEntry)

	require.NoError(t, store.Users.SetActive(ctx, "cashier", false))
	loaded, err := store.Users.GetByUsername(ctx, "cashier")
	require.NoError(t, err)
	require.False(t, loaded.Active)

	newHash, err := auth.HashPassword("An0ther-pass!")
	require.NoError(t, err)
	require.NoError(t, store.Users.SetPasswordHash(ctx, "cashier", newHash, false))
	loaded, err = store.Users.GetByUsername(ctx, "cashier")
	require.NoError(t, err)
	require.Equal(t, newHash, loaded.PasswordHash)
	require.False(t, loaded.MustChangePassword)

	users, err := store.Users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2) // cashier plus the bootstrap admin
}

func TestUserCreateRejectsUnknownRole(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	err := store.Users.Create(context.Background(), &User{
		Username:     "odd",
		Role:         "superuser",
		PasswordHash: "x",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid role")
}

func TestSettingsRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Settings.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Settings.Set(ctx, SettingBaseVoucherID, "50000"))
	value, err := store.Settings.Get(ctx, SettingBaseVoucherID)
	require.NoError(t, err)
	require.Equal(t, "50000", value)

	// SetIfAbsent must not clobber an existing value.
	require.NoError(t, store.Settings.SetIfAbsent(ctx, SettingBaseVoucherID, "60000"))
	value, err = store.Settings.Get(ctx, SettingBaseVoucherID)
	require.NoError(t, err)
	require.Equal(t, "50000", value)
}
