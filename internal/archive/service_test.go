package archive

import (
	"context"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vovarama1992/language_buddy/internal/audio"
)

type memStore struct {
	key         string
	body        []byte
	size        int64
	contentType string
}

func (m *memStore) PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.key, m.body, m.size, m.contentType = key, body, size, contentType
	return "https://s3.example/bucket/" + key, nil
}

func TestSave(t *testing.T) {
	store := &memStore{}
	svc := NewService(store)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC) }

	url, err := svc.Save(context.Background(), audio.Blob{Data: []byte("opus"), MIMEType: "audio/ogg;codecs=opus"})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^recordings/2026-03-14/[0-9a-f-]{36}\.ogg$`), store.key)
	assert.Equal(t, "https://s3.example/bucket/"+store.key, url)
	assert.Equal(t, []byte("opus"), store.body)
	assert.Equal(t, int64(4), store.size)
	assert.Equal(t, "audio/ogg;codecs=opus", store.contentType)
}

func TestSave_Empty(t *testing.T) {
	store := &memStore{}
	_, err := NewService(store).Save(context.Background(), audio.Blob{})
	assert.ErrorIs(t, err, ErrEmptyRecording)
	assert.Empty(t, store.key)
}

func TestSave_DefaultContentType(t *testing.T) {
	store := &memStore{}
	_, err := NewService(store).Save(context.Background(), audio.Blob{Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, audio.DefaultMIMEType, store.contentType)
	assert.Contains(t, store.key, ".webm")
}
