package payment

import (
	"context"
	"sync"
)

// MemoryStore keeps statuses in process memory. State is lost on restart;
// it is used when no Redis is configured.
type MemoryStore struct {
	mu   sync.Mutex
	data map[Key]*Status
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[Key]*Status)}
}

func (m *MemoryStore) Get(_ context.Context, k Key) (*Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[k]
	if !ok {
		return nil, nil
	}
	return cloneStatus(s), nil
}

func (m *MemoryStore) Update(_ context.Context, k Key, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current *Status
	if s, ok := m.data[k]; ok {
		current = cloneStatus(s)
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if next != nil {
		m.data[k] = cloneStatus(next)
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, k Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, k)
	return nil
}
