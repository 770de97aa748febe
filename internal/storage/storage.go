// Package storage provides the key-value persistence contract consumed by
// the entity store and the caches, plus in-memory and PostgreSQL-backed
// implementations.
package storage

import (
	"context"
	"encoding/json"
	"sync"
)

// Store is an asynchronous key-value store. Values are persisted as JSON.
// Get reports found=false for missing keys rather than an error.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
}

// GetJSON reads a key and unmarshals it into dest. Missing keys leave
// dest untouched and report found=false.
func GetJSON(ctx context.Context, s Store, key string, dest any) (bool, error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// MemoryStore is a process-local Store used in tests and for runs without
// a configured database.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]json.RawMessage)}
}

// Get returns the stored JSON for a key.
func (m *MemoryStore) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.data[key]
	return raw, ok, nil
}

// Set marshals and stores a value under a key.
func (m *MemoryStore) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

// Remove deletes a key.
func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
