package speech

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const elevenLabsURL = "https://api.elevenlabs.io"

type ElevenLabsClient struct {
	client *resty.Client
}

// NewElevenLabsClient builds a client; an empty baseURL means the public API.
func NewElevenLabsClient(apiKey, baseURL string) *ElevenLabsClient {
	if baseURL == "" {
		baseURL = elevenLabsURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("xi-api-key", apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "audio/mpeg").
		SetTimeout(2 * time.Minute)

	return &ElevenLabsClient{client: c}
}

type elevenLabsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// TEXT → SPEECH
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("voice", voiceID).
		SetBody(&elevenLabsRequest{Text: text, ModelID: "eleven_multilingual_v2"}).
		Post("/v1/text-to-speech/{voice}")
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("tts failed: status %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.Body(), nil
}
