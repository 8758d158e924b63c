package internship

import (
	"context"
	"sync"
)

// Memory implements Store with in-process concurrency safety.
type Memory struct {
	mu      sync.RWMutex
	details map[string]*Details
	reports map[string]*Report
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		details: make(map[string]*Details),
		reports: make(map[string]*Report),
	}
}

func (m *Memory) UpsertDetails(ctx context.Context, rec *Details) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.details[rec.Identity] = &cp
	return nil
}

func (m *Memory) UpsertReport(ctx context.Context, rec *Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.reports[rec.Identity] = &cp
	return nil
}

func (m *Memory) Details(ctx context.Context, identity string) (*Details, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.details[identity]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *Memory) Report(ctx context.Context, identity string) (*Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.reports[identity]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *Memory) DeleteByIdentity(ctx context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.details, identity)
	delete(m.reports, identity)
	return nil
}
