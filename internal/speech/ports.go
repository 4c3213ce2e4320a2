package speech

import (
	"context"
	"errors"
)

var (
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrSynthesisFailed     = errors.New("synthesis failed")
	ErrBusy                = errors.New("playback request already in flight")
	ErrPlayerClosed        = errors.New("player closed")
)

// STTClient: голос → текст
type STTClient interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// TTSClient: текст → голос (mp3)
type TTSClient interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}
