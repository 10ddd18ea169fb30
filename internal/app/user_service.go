package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sui1tyan/Service-Voucher-Management-System-sub000/internal/auth"
	"github.com/sui1tyan/Service-Voucher-Management-System-sub000/internal/storage"
)

type UserService struct {
	users storage.UserRepository
}

func NewUserService(users storage.UserRepository) *UserService {
	return &UserService{users: users}
}

// Authenticate verifies the credential pair. Unknown usernames and wrong
// passwords are indistinguishable to the caller. The returned user carries
// MustChangePassword so the caller can force a rotation before granting
// access to anything else.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*storage.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrUserInactive
	}
	return user, nil
}

// ChangePassword rotates a credential after verifying the current one and
// checking the new one against the password policy. A successful rotation
// clears the must-change flag.
func (s *UserService) ChangePassword(ctx context.Context, username, current, next string) error {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if !auth.VerifyPassword(current, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := auth.ValidatePassword(next); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := s.users.SetPasswordHash(ctx, user.Username, hash, false); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// CreateUser registers an account. The initial password must already meet
// the policy; the account still starts with the must-change flag set so
// the owner picks their own credential at first login.
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*storage.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	role := storage.UserRole(req.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	user := &storage.User{
		Username:           req.Username,
		Role:               role,
		PasswordHash:       hash,
		Active:             true,
		MustChangePassword: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *UserService) SetActive(ctx context.Context, username string, active bool) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if err := s.users.SetActive(ctx, username, active); err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	return nil
}

func (s *UserService) List(ctx context.Context) ([]storage.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
