package session

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"praktika.org/internal/ids"
)

// DefaultTTL is the fixed session lifetime.
const DefaultTTL = 24 * time.Hour

var (
	ErrInvalidSession = errors.New("session: invalid or expired")
	ErrInvalidInput   = errors.New("session: invalid input")
)

// Session binds an opaque token to exactly one identity. It deliberately
// carries no profile data; callers re-fetch the account record when they
// need mutable fields.
type Session struct {
	ID        string    `json:"id"`
	Identity  string    `json:"identity"`
	Role      string    `json:"role"`
	TokenHash string    `json:"token_hash"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its time-to-live.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Store persists sessions. Backing stores: process memory, or Redis for
// multi-instance deployments.
type Store interface {
	Create(ctx context.Context, sess *Session) error
	Find(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// Manager issues, resolves and destroys sessions. The client-visible token
// is "<id>.<secret>"; only a SHA-256 hash of the secret is stored, so a
// leaked session store cannot be replayed.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// Option configures Manager behavior.
type Option func(*Manager)

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(m *Manager) {
		if fn != nil {
			m.now = fn
		}
	}
}

func NewManager(store Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	m := &Manager{store: store, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Create issues a new session bound to the identity and returns the opaque
// client token alongside the stored record.
func (m *Manager) Create(ctx context.Context, identity, role string) (string, *Session, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" || role == "" {
		return "", nil, ErrInvalidInput
	}
	secret, err := ids.NewSecret()
	if err != nil {
		return "", nil, err
	}
	now := m.now().UTC()
	sess := &Session{
		ID:        ids.New(),
		Identity:  identity,
		Role:      role,
		TokenHash: hashSecret(secret),
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Create(ctx, sess); err != nil {
		return "", nil, err
	}
	return sess.ID + "." + secret, sess, nil
}

// Resolve maps a client token back to its session. Unknown, expired and
// revoked tokens are indistinguishable to the caller. A secret mismatch for
// a known id additionally revokes the session.
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	id, secret, err := splitToken(token)
	if err != nil {
		return nil, ErrInvalidSession
	}
	sess, err := m.store.Find(ctx, id)
	if err != nil {
		return nil, ErrInvalidSession
	}
	if sess.Expired(m.now().UTC()) {
		_ = m.store.Delete(ctx, id)
		return nil, ErrInvalidSession
	}
	if subtle.ConstantTimeCompare([]byte(sess.TokenHash), []byte(hashSecret(secret))) != 1 {
		_ = m.store.Delete(ctx, id)
		return nil, ErrInvalidSession
	}
	return sess, nil
}

// Destroy revokes the session behind the token. Destroying an unknown or
// already revoked token is not an error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	id, _, err := splitToken(token)
	if err != nil {
		return nil
	}
	err = m.store.Delete(ctx, id)
	if errors.Is(err, ErrInvalidSession) {
		return nil
	}
	return err
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

func splitToken(raw string) (id, secret string, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New("invalid token format")
	}
	return parts[0], parts[1], nil
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
