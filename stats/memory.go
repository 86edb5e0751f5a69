package stats

import (
	"context"
	"sync"
)

const defaultKeep = 100

type MemoryStore struct {
	mu    sync.Mutex
	keep  int
	items []Summary
}

func NewMemoryStore(keep int) *MemoryStore {
	if keep <= 0 {
		keep = defaultKeep
	}
	return &MemoryStore{keep: keep}
}

func (m *MemoryStore) Record(_ context.Context, s Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, s)
	if over := len(m.items) - m.keep; over > 0 {
		m.items = append([]Summary(nil), m.items[over:]...)
	}
	return nil
}

func (m *MemoryStore) Recent(_ context.Context, n int) ([]Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || n > len(m.items) {
		n = len(m.items)
	}
	out := make([]Summary, 0, n)
	for i := len(m.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.items[i])
	}
	return out, nil
}
