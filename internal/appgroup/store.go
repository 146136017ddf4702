// ABOUTME: Key/value store abstraction behind the shared app-group namespace
// ABOUTME: Includes an in-process MemoryStore used by tests and single-process setups
package appgroup

import (
	"context"
	"sync"
)

// Store is a byte-oriented key/value namespace shared between processes
type Store interface {
	// Get returns the value for key, or nil with no error when the key is absent
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value for key in a single write
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key; deleting an absent key is not an error
	Delete(ctx context.Context, key string) error
	// Update atomically replaces the value for key with fn(old). old is nil
	// when the key is absent; returning nil from fn deletes the key.
	Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error
	// Close releases resources held by the store
	Close() error
}

// MemoryStore is a Store kept in process memory
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get returns a copy of the stored value
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.data[key]), nil
}

// Set stores a copy of value
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = clone(value)
	return nil
}

// Delete removes key
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Update runs fn under the store lock
func (m *MemoryStore) Update(_ context.Context, key string, fn func(old []byte) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := fn(clone(m.data[key]))
	if err != nil {
		return err
	}
	if next == nil {
		delete(m.data, key)
		return nil
	}
	m.data[key] = clone(next)
	return nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
