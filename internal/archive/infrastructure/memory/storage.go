package memory

import (
	"context"
	"io"
	"sync"
)

// Storage is an in-memory blob storage backend for tests and local
// development.
type Storage struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewStorage constructs an empty in-memory storage.
func NewStorage() *Storage {
	return &Storage{blobs: make(map[string][]byte)}
}

// Put stores a payload under key.
func (s *Storage) Put(_ context.Context, key string, payload io.Reader) error {
	data, err := io.ReadAll(payload)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return nil
}

// Get returns the payload stored under key, or (nil, nil) when absent.
func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, nil
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

// Delete removes the payload stored under key.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// PresignedURL returns a stable fake link for key.
func (s *Storage) PresignedURL(_ context.Context, key string) (string, error) {
	return "memory://" + key, nil
}

// Len reports how many blobs are stored. Test helper.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
