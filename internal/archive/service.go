package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Vovarama1992/language_buddy/internal/audio"
)

var ErrEmptyRecording = errors.New("empty recording")

type Service struct {
	store ObjectStore
	now   func() time.Time
}

func NewService(store ObjectStore) *Service {
	return &Service{store: store, now: time.Now}
}

// ObjectKey: путь в бакете
func (s *Service) ObjectKey(mimeType string) string {
	date := s.now().UTC().Format("2006-01-02")
	return fmt.Sprintf("recordings/%s/%s%s", date, uuid.NewString(), extension(mimeType))
}

// Save uploads blob and returns where it was stored.
func (s *Service) Save(ctx context.Context, blob audio.Blob) (string, error) {
	if blob.Empty() {
		return "", ErrEmptyRecording
	}

	contentType := blob.MIMEType
	if contentType == "" {
		contentType = audio.DefaultMIMEType
	}
	key := s.ObjectKey(contentType)
	return s.store.PutObject(ctx, key, bytes.NewReader(blob.Data), int64(blob.Size()), contentType)
}

func extension(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	switch strings.TrimSpace(strings.ToLower(base)) {
	case "audio/ogg", "audio/opus":
		return ".ogg"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	}
	return ".webm"
}

// Nop: архив выключен.
type Nop struct{}

func (Nop) Save(ctx context.Context, blob audio.Blob) (string, error) { return "", nil }
