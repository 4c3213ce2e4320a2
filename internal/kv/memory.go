package kv

import (
	"context"
	"sync"
)

// MemoryStore держит значения в map; для тестов и режима без диска.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.values == nil {
		return "", false, ErrClosed
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.values == nil {
		return ErrClosed
	}
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.values == nil {
		return ErrClosed
	}
	delete(s.values, key)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = nil
	return nil
}
