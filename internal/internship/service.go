package internship

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"praktika.org/internal/account"
	"praktika.org/internal/upload"
)

// AccountDirectory is the slice of the account store the faculty views need.
// account.Store satisfies it.
type AccountDirectory interface {
	Find(ctx context.Context, id string) (*account.Account, error)
	List(ctx context.Context, role string) ([]*account.Account, error)
}

// Service owns submission upserts and the faculty aggregate views. Identity
// always comes from the authenticated session; this package never sees a
// client-supplied register number.
type Service struct {
	store    Store
	accounts AccountDirectory
	now      func() time.Time
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

func NewService(store Store, accounts AccountDirectory, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("submission store is required")
	}
	if accounts == nil {
		return nil, errors.New("account directory is required")
	}
	svc := &Service{store: store, accounts: accounts, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// UpsertDetails replaces the identity's details record wholesale. When the
// caller provides no new file, the previously stored descriptor survives, so
// resubmitting the form without re-uploading keeps the offer letter.
func (s *Service) UpsertDetails(ctx context.Context, identity string, rec Details, file *upload.FileDescriptor) (*Details, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, fmt.Errorf("%w: identity is required", ErrInvalidInput)
	}
	if strings.TrimSpace(rec.Company) == "" || strings.TrimSpace(rec.Role) == "" {
		return nil, fmt.Errorf("%w: company and role are required", ErrInvalidInput)
	}
	if strings.TrimSpace(rec.StartDate) == "" {
		return nil, fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}

	rec.Identity = identity
	rec.File = file
	rec.SubmittedAt = s.now().UTC()
	if rec.File == nil {
		if prev, err := s.store.Details(ctx, identity); err == nil {
			rec.File = prev.File
		}
	}
	if err := s.store.UpsertDetails(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpsertReport replaces the identity's report record wholesale, with the
// same file-carryover rule as UpsertDetails.
func (s *Service) UpsertReport(ctx context.Context, identity string, rec Report, file *upload.FileDescriptor) (*Report, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, fmt.Errorf("%w: identity is required", ErrInvalidInput)
	}
	if strings.TrimSpace(rec.Summary) == "" {
		return nil, fmt.Errorf("%w: summary is required", ErrInvalidInput)
	}
	if !rec.Declaration {
		return nil, fmt.Errorf("%w: declaration must be accepted", ErrInvalidInput)
	}
	if rec.Rating < 0 || rec.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 0 and 5", ErrInvalidInput)
	}

	rec.Identity = identity
	rec.File = file
	rec.SubmittedAt = s.now().UTC()
	if rec.File == nil {
		if prev, err := s.store.Report(ctx, identity); err == nil {
			rec.File = prev.File
		}
	}
	if err := s.store.UpsertReport(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Details returns the identity's details record or ErrNotFound.
func (s *Service) Details(ctx context.Context, identity string) (*Details, error) {
	return s.store.Details(ctx, identity)
}

// Report returns the identity's report record or ErrNotFound.
func (s *Service) Report(ctx context.Context, identity string) (*Report, error) {
	return s.store.Report(ctx, identity)
}

// Status derives the identity's lifecycle status from record presence.
func (s *Service) Status(ctx context.Context, identity string) (Status, error) {
	hasDetails, hasReport, err := s.presence(ctx, identity)
	if err != nil {
		return "", err
	}
	return DeriveStatus(hasDetails, hasReport), nil
}

// Overview left-joins every student account with both record kinds.
func (s *Service) Overview(ctx context.Context) ([]StudentStatus, error) {
	students, err := s.accounts.List(ctx, account.RoleStudent)
	if err != nil {
		return nil, err
	}
	out := make([]StudentStatus, 0, len(students))
	for _, st := range students {
		hasDetails, hasReport, err := s.presence(ctx, st.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, StudentStatus{
			Identity:   st.ID,
			Name:       st.Name,
			Email:      st.Email,
			Department: st.Department,
			HasDetails: hasDetails,
			HasReport:  hasReport,
			Status:     DeriveStatus(hasDetails, hasReport),
		})
	}
	return out, nil
}

// StudentRecord returns one student's account joined with both records.
func (s *Service) StudentRecord(ctx context.Context, identity string) (*StudentRecord, error) {
	acc, err := s.accounts.Find(ctx, identity)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if acc.Role != account.RoleStudent {
		return nil, ErrNotFound
	}
	rec := &StudentRecord{
		Identity:   acc.ID,
		Name:       acc.Name,
		Email:      acc.Email,
		Department: acc.Department,
		Phone:      acc.Phone,
	}
	if det, err := s.store.Details(ctx, identity); err == nil {
		rec.Details = det
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if rep, err := s.store.Report(ctx, identity); err == nil {
		rec.Report = rep
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	rec.Status = DeriveStatus(rec.Details != nil, rec.Report != nil)
	return rec, nil
}

// DeleteStudent removes both record kinds for the identity.
func (s *Service) DeleteStudent(ctx context.Context, identity string) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return fmt.Errorf("%w: identity is required", ErrInvalidInput)
	}
	return s.store.DeleteByIdentity(ctx, identity)
}

func (s *Service) presence(ctx context.Context, identity string) (hasDetails, hasReport bool, err error) {
	if _, derr := s.store.Details(ctx, identity); derr == nil {
		hasDetails = true
	} else if !errors.Is(derr, ErrNotFound) {
		return false, false, derr
	}
	if _, rerr := s.store.Report(ctx, identity); rerr == nil {
		hasReport = true
	} else if !errors.Is(rerr, ErrNotFound) {
		return false, false, rerr
	}
	return hasDetails, hasReport, nil
}
