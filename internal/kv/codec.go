package kv

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
)

// GetJSON reads key and decodes it into v. Returns ok=false when the key is
// absent. A decode failure is returned as an error so callers can decide to
// fall back to defaults.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and overwrites key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(b))
}
