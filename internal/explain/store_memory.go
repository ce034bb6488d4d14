package explain

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu   sync.RWMutex
	byFP map[string]Explanation
}

// NewMemoryStore returns an in-memory Store, used in tests and for
// dev setups without a database.
func NewMemoryStore() Store {
	return &memoryStore{byFP: map[string]Explanation{}}
}

func (m *memoryStore) Get(_ context.Context, fingerprint string) (*Explanation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byFP[fingerprint]
	if !ok {
		return nil, ErrNoExplanation
	}
	cp := e
	return &cp, nil
}

func (m *memoryStore) Put(_ context.Context, e Explanation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byFP[e.Fingerprint] = e
	return nil
}

func (m *memoryStore) Delete(_ context.Context, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byFP[fingerprint]; !ok {
		return ErrNoExplanation
	}
	delete(m.byFP, fingerprint)
	return nil
}

func (m *memoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byFP), nil
}
