// Package audio накапливает аудио с устройства записи и отдаёт его одним блобом.
package audio

import (
	"context"
	"errors"
)

var (
	ErrPermissionDenied  = errors.New("microphone permission denied")
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	ErrNotRecording      = errors.New("not recording")
	ErrAlreadyRecording  = errors.New("already recording")
)

// Stream: открытое устройство записи.
type Stream interface {
	// Chunks закрывается, когда устройство больше ничего не отдаст.
	Chunks() <-chan []byte
	// Close освобождает устройство; после него Chunks будет закрыт.
	Close() error
}

type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Blob: итог одной записи.
type Blob struct {
	Data     []byte
	MIMEType string
	Chunks   int
}

func (b Blob) Size() int { return len(b.Data) }

func (b Blob) Empty() bool { return len(b.Data) == 0 }
