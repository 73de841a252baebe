// Package memory provides an in-process cart.Store. It backs tests and
// database-less development runs; nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/xenking/makeup-store/internal/domain/cart"
)

var _ cart.Store = (*KVStore)(nil)

// KVStore is a mutex-guarded map implementing cart.Store.
type KVStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewKVStore returns an empty in-memory store.
func NewKVStore() *KVStore {
	return &KVStore{blobs: make(map[string][]byte)}
}

// Read returns the blob stored under key, or cart.ErrBlobNotFound.
func (s *KVStore) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[key]
	if !ok {
		return nil, cart.ErrBlobNotFound
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

// Write stores a copy of blob under key.
func (s *KVStore) Write(_ context.Context, key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(blob))
	copy(stored, blob)
	s.blobs[key] = stored
	return nil
}
