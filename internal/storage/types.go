package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("storage: not found")
	ErrSchemaTooNew   = errors.New("storage: schema version newer than code")
	ErrVoucherIDTaken = errors.New("storage: voucher id already in use")
	ErrDuplicateEntry = errors.New("storage: duplicate entry")
	ErrIntegrity      = errors.New("storage: integrity violation")
)

type VoucherStatus string

const (
	StatusPending   VoucherStatus = "Pending"
	StatusCompleted VoucherStatus = "Completed"
	StatusCancelled VoucherStatus = "Cancelled"

	// StatusAll is a filter sentinel, never stored.
	StatusAll VoucherStatus = "All"
)

func (s VoucherStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Voucher is one repair/service job. VoucherID is the shop-facing
// sequential number, unique and immutable once assigned.
type Voucher struct {
	VoucherID        string
	CustomerName     string
	ContactNo        string
	Quantity         int
	Particulars      string
	Problem          string
	Solution         string
	ReceivedBy       string
	Technician       string
	Status           VoucherStatus
	DocumentPath     string
	BillRefNo        string
	Amount           float64
	CommissionAmount float64
	Reminder1At      *time.Time
	Reminder2At      *time.Time
	Reminder3At      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// VoucherFilter carries optional search criteria. Zero values impose no
// constraint. DateFrom/DateTo hold user-entered text in day-month-year
// display form (02-01-2006); an unparsable value drops that criterion.
type VoucherFilter struct {
	IDContains       string
	CustomerContains string
	ContactContains  string
	Status           VoucherStatus
	DateFrom         string
	DateTo           string
}

type Staff struct {
	ID        string
	Name      string
	Position  string
	StaffNo   string
	Phone     string
	PhotoPath string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserRole string

const (
	RoleAdmin          UserRole = "admin"
	RoleSalesAssistant UserRole = "sales_assistant"
	RoleUser           UserRole = "user"
	RoleTechnician     UserRole = "technician"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleSalesAssistant, RoleUser, RoleTechnician:
		return true
	}
	return false
}

type User struct {
	ID                 string
	Username           string
	Role               UserRole
	PasswordHash       string
	Active             bool
	MustChangePassword bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type BillType string

const (
	BillTypeCS  BillType = "CS"
	BillTypeINV BillType = "INV"
)

func (b BillType) Valid() bool {
	return b == BillTypeCS || b == BillTypeINV
}

// Commission belongs to exactly one staff member and is removed with it.
type Commission struct {
	ID               string
	StaffID          string
	BillType         BillType
	BillNo           string
	TotalAmount      float64
	CommissionAmount float64
	BillImagePath    string
	VoucherID        string
	Note             string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type VoucherRepository interface {
	Create(ctx context.Context, voucher *Voucher) error
	Get(ctx context.Context, voucherID string) (*Voucher, error)
	Search(ctx context.Context, filter VoucherFilter) ([]Voucher, error)
	NextVoucherID(ctx context.Context) (string, error)
	UpdateOutcome(ctx context.Context, voucherID string, status VoucherStatus, solution, technician string) error
	SetDocumentPath(ctx context.Context, voucherID, path string) error
	RecordReminder(ctx context.Context, voucherID string, at time.Time) error
	Count(ctx context.Context) (int64, error)
}

type StaffRepository interface {
	Create(ctx context.Context, staff *Staff) error
	Get(ctx context.Context, name string) (*Staff, error)
	List(ctx context.Context) ([]Staff, error)
	Update(ctx context.Context, staff *Staff) error
	Delete(ctx context.Context, name string) error
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	SetPasswordHash(ctx context.Context, username, hash string, mustChange bool) error
	SetActive(ctx context.Context, username string, active bool) error
	CountByRole(ctx context.Context, role UserRole) (int64, error)
}

type CommissionRepository interface {
	Create(ctx context.Context, commission *Commission) error
	ListByStaff(ctx context.Context, staffID string) ([]Commission, error)
	ListByVoucher(ctx context.Context, voucherID string) ([]Commission, error)
	Delete(ctx context.Context, id string) error
}

type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	SetIfAbsent(ctx context.Context, key, value string) error
}
