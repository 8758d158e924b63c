package account

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory implements Store with in-process concurrency safety. Used by tests
// and single-binary development setups.
type Memory struct {
	mu      sync.RWMutex
	byID    map[string]*Account
	byEmail map[string]string // email -> id
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]*Account),
		byEmail: make(map[string]string),
	}
}

func (m *Memory) Create(ctx context.Context, acc *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[acc.ID]; ok {
		return ErrDuplicate
	}
	email := strings.ToLower(acc.Email)
	if _, ok := m.byEmail[email]; ok {
		return ErrDuplicate
	}
	cp := *acc
	m.byID[acc.ID] = &cp
	m.byEmail[email] = acc.ID
	return nil
}

func (m *Memory) Find(ctx context.Context, id string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (m *Memory) FindByEmail(ctx context.Context, email string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *Memory) List(ctx context.Context, role string) ([]*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Account
	for _, acc := range m.byID {
		if role != "" && acc.Role != role {
			continue
		}
		cp := *acc
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.byEmail, strings.ToLower(acc.Email))
	delete(m.byID, id)
	return nil
}
