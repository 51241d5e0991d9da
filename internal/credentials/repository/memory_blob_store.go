// Package repository implements blob stores for the encrypted credential
// bundle: in-memory, file, SQL (PostgreSQL, MySQL, SQLite), MongoDB and a
// KMS envelope decorator.
package repository

import (
	"context"
	"sync"

	apperrors "github.com/allisson/credproxy/internal/errors"
)

// MemoryBlobStore keeps blobs in process memory. Contents are lost on exit.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryBlobStore creates an empty in-memory store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

// Put stores a copy of value.
func (m *MemoryBlobStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[key] = append([]byte(nil), value...)
	return nil
}

// Get returns a copy of the stored value.
func (m *MemoryBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.blobs[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}
