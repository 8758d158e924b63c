package account

import "context"

// Store describes persistence operations required for accounts. The identity
// key and email are unique across both roles.
type Store interface {
	Create(ctx context.Context, acc *Account) error
	Find(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	List(ctx context.Context, role string) ([]*Account, error)
	Delete(ctx context.Context, id string) error
}
