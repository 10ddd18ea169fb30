package app

import "errors"

var (
	ErrValidation         = errors.New("app: validation failed")
	ErrInvalidCredentials = errors.New("app: invalid credentials")
	ErrUserInactive       = errors.New("app: user is inactive")
)

// CreateVoucherRequest carries operator input for a new service voucher.
// The voucher number is never supplied by the caller; it is allocated
// during creation.
type CreateVoucherRequest struct {
	CustomerName string
	ContactNo    string
	Quantity     int
	Particulars  string
	Problem      string
	ReceivedBy   string
}

type UpdateVoucherOutcomeRequest struct {
	VoucherID  string
	Status     string
	Solution   string
	Technician string
}

type CreateStaffRequest struct {
	Name     string
	Position string
	Phone    string
}

type UpdateStaffRequest struct {
	Name     string
	Position *string
	Phone    *string
}

type CreateUserRequest struct {
	Username string
	Password string
	Role     string
}

type RecordCommissionRequest struct {
	StaffName        string
	BillType         string
	BillNo           string
	VoucherID        string
	TotalAmount      float64
	CommissionAmount float64
	Note             string
}
