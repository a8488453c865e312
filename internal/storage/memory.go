package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps values in process memory.  It backs the tab scope in
// single-instance deployments and every scope in tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[string][]byte{}}
}

func (m *MemoryStore) Get(_ context.Context, owner, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[owner][key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, owner, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.data[owner]
	if !ok {
		bucket = map[string][]byte{}
		m.data[owner] = bucket
	}
	v := make([]byte, len(value))
	copy(v, value)
	bucket[key] = v
	return nil
}
