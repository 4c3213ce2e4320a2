package speech

import (
	"bytes"
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// WhisperClient распознаёт речь через OpenAI whisper-1.
type WhisperClient struct {
	client *openai.Client
}

func NewWhisperClient(client *openai.Client) *WhisperClient {
	return &WhisperClient{client: client}
}

func (c *WhisperClient) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: "recording" + extensionFor(mimeType),
		Reader:   bytes.NewReader(data),
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// whisper определяет формат по расширению имени файла
func extensionFor(mimeType string) string {
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
	default:
		return ".webm"
	}
}
