package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
)

// FileStore хранит все ключи одним JSON-документом.
// Запись идёт во временный файл с последующим rename, поэтому читатель
// видит либо старое, либо новое содержимое целиком.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewFileStore opens (or creates) the document at path. An unreadable or
// malformed document is treated as empty.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidConfig)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create kv dir: %w", err)
	}

	s := &FileStore{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read kv file: %w", err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil || s.values == nil {
		s.values = make(map[string]string)
	}
	return s, nil
}

func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.values == nil {
		return "", false, ErrClosed
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.values == nil {
		return ErrClosed
	}

	prev, had := s.values[key]
	s.values[key] = value
	if err := s.flush(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.values == nil {
		return ErrClosed
	}

	prev, had := s.values[key]
	if !had {
		return nil
	}
	delete(s.values, key)
	if err := s.flush(); err != nil {
		s.values[key] = prev
		return err
	}
	return nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = nil
	return nil
}

func (s *FileStore) flush() error {
	data, err := json.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("encode kv file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".kv-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace kv file: %w", err)
	}
	return nil
}
