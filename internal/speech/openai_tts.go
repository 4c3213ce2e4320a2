package speech

import (
	"context"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAITTS синтезирует речь моделью tts-1.
type OpenAITTS struct {
	client *openai.Client
}

func NewOpenAITTS(client *openai.Client) *OpenAITTS {
	return &OpenAITTS{client: client}
}

// TEXT → SPEECH
func (t *OpenAITTS) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	resp, err := t.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	return io.ReadAll(resp)
}
