package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const minPasswordLen = 6

// Service provides registration and credential verification on top of an
// injected Store.
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("account store is required")
	}
	svc := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Register validates the input, hashes the password and persists the
// account. Duplicate identity keys and emails fail with ErrDuplicate
// regardless of the remaining fields.
// validIdentity rejects identity keys that cannot double as a single path
// element (the upload store keys directories by identity).
func validIdentity(id string) bool {
	if id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Department = strings.TrimSpace(in.Department)
	in.Phone = strings.TrimSpace(in.Phone)

	if in.ID == "" || in.Name == "" || in.Department == "" {
		return nil, fmt.Errorf("%w: all fields are required", ErrInvalidInput)
	}
	// Identity становится именем каталога для загрузок.
	if !validIdentity(in.ID) {
		return nil, fmt.Errorf("%w: identity contains invalid characters", ErrInvalidInput)
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if in.Role != RoleStudent && in.Role != RoleFaculty {
		return nil, fmt.Errorf("%w: unsupported role %s", ErrInvalidInput, in.Role)
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	if in.Password != in.ConfirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	acc := &Account{
		ID:           in.ID,
		Role:         in.Role,
		Name:         in.Name,
		Email:        in.Email,
		Department:   in.Department,
		Phone:        in.Phone,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Create(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// VerifyCredentials authenticates an identity. The two failure paths stay
// distinguishable so the caller can offer registration on an unknown
// identity and a retry on a wrong password.
func (s *Service) VerifyCredentials(ctx context.Context, id, password string) (*Account, error) {
	id = strings.TrimSpace(id)
	if id == "" || password == "" {
		return nil, fmt.Errorf("%w: identity and password are required", ErrInvalidInput)
	}
	acc, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := VerifyPassword(acc.PasswordHash, password); err != nil {
		return nil, ErrBadCredentials
	}
	return acc, nil
}

// Get returns the authoritative account record for the identity.
func (s *Service) Get(ctx context.Context, id string) (*Account, error) {
	return s.store.Find(ctx, strings.TrimSpace(id))
}

// List returns accounts with the given role, ordered by identity.
func (s *Service) List(ctx context.Context, role string) ([]*Account, error) {
	return s.store.List(ctx, role)
}

// Delete removes an account. Submission records and stored files are the
// caller's responsibility.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: identity is required", ErrInvalidInput)
	}
	return s.store.Delete(ctx, id)
}
