package internship

import "context"

// Store persists submission records keyed by student identity, at most one
// of each kind per identity. Upserts replace the record wholesale.
type Store interface {
	UpsertDetails(ctx context.Context, rec *Details) error
	UpsertReport(ctx context.Context, rec *Report) error
	Details(ctx context.Context, identity string) (*Details, error)
	Report(ctx context.Context, identity string) (*Report, error)
	DeleteByIdentity(ctx context.Context, identity string) error
}
