package storage

import (
	"context"
	"errors"
	"sync"
)

// MemoryDocumentStore keeps documents in process memory. It stands in for S3
// when no bucket is configured.
type MemoryDocumentStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryDocumentStore creates an empty store
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{objects: make(map[string][]byte)}
}

// Put stores a copy of data
func (s *MemoryDocumentStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return "memory://" + key, nil
}

// DownloadURL returns the memory location of key
func (s *MemoryDocumentStore) DownloadURL(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[key]; !ok {
		return "", errors.New("object not found: " + key)
	}
	return "memory://" + key, nil
}

// Get returns the stored bytes of key
func (s *MemoryDocumentStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}

var _ DocumentStore = (*MemoryDocumentStore)(nil)
