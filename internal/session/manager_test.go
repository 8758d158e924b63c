package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCreateAndResolve(t *testing.T) {
	m, err := NewManager(NewMemoryStore())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	ctx := context.Background()

	token, sess, err := m.Create(ctx, "21BCE100", "student")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(token, ".") {
		t.Fatalf("token missing id/secret separator: %q", token)
	}
	if sess.TokenHash == "" || strings.Contains(token, sess.TokenHash) {
		t.Fatal("secret must be stored hashed, not verbatim")
	}

	got, err := m.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Identity != "21BCE100" || got.Role != "student" {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestResolveRejectsTamperedSecret(t *testing.T) {
	m, _ := NewManager(NewMemoryStore())
	ctx := context.Background()

	token, _, err := m.Create(ctx, "21BCE100", "student")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := strings.SplitN(token, ".", 2)[0]

	if _, err := m.Resolve(ctx, id+".forged-secret"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	// A mismatch revokes the session, so the genuine token dies too.
	if _, err := m.Resolve(ctx, token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected revoked session, got %v", err)
	}
}

func TestExpiry(t *testing.T) {
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m, _ := NewManager(NewMemoryStore(), WithClock(func() time.Time { return current }))
	ctx := context.Background()

	token, _, err := m.Create(ctx, "21BCE100", "student")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	current = current.Add(23 * time.Hour)
	if _, err := m.Resolve(ctx, token); err != nil {
		t.Fatalf("session should still be live: %v", err)
	}

	current = current.Add(2 * time.Hour)
	if _, err := m.Resolve(ctx, token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	m, _ := NewManager(NewMemoryStore())
	ctx := context.Background()

	token, _, err := m.Create(ctx, "FAC042", "faculty")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.Destroy(ctx, token); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if _, err := m.Resolve(ctx, token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession after destroy, got %v", err)
	}
	if err := m.Destroy(ctx, token); err != nil {
		t.Fatalf("second destroy must be a no-op: %v", err)
	}
	if err := m.Destroy(ctx, "garbage"); err != nil {
		t.Fatalf("destroying malformed token must be a no-op: %v", err)
	}
}

func TestMemorySweep(t *testing.T) {
	store := NewMemoryStore()
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m, _ := NewManager(store, WithClock(func() time.Time { return current }), WithTTL(time.Hour))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, _, err := m.Create(ctx, "21BCE10"+string(rune('0'+i)), "student"); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if n := store.Sweep(current.Add(2 * time.Hour)); n != 3 {
		t.Fatalf("expected 3 swept sessions, got %d", n)
	}
}
