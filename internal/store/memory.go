package store

import (
	"context"
	"sync"
)

// MemoryThreadStore is an in-process ThreadStore. Mappings are lost on
// restart; a fresh thread is created for the user on the next message,
// which is an accepted degradation.
type MemoryThreadStore struct {
	mu      sync.RWMutex
	threads map[string]string
}

// NewMemoryThreadStore creates an empty in-memory store.
func NewMemoryThreadStore() *MemoryThreadStore {
	return &MemoryThreadStore{threads: make(map[string]string)}
}

// Get returns the thread ID for userID, or "" when absent.
func (s *MemoryThreadStore) Get(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threads[userID], nil
}

// PutIfAbsent records the mapping unless one exists; first write wins.
func (s *MemoryThreadStore) PutIfAbsent(_ context.Context, userID, threadID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.threads[userID]; ok {
		return existing, nil
	}
	s.threads[userID] = threadID
	return threadID, nil
}
