// Package archive складывает готовые записи в объектное хранилище.
package archive

import (
	"context"
	"io"
)

// Низкоуровневый клиент к S3
type ObjectStore interface {
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) (publicURL string, err error)
}
