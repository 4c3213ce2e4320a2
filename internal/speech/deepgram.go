package speech

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
)

const deepgramURL = "https://api.deepgram.com"

type DeepgramClient struct {
	client *resty.Client
}

// NewDeepgramClient builds a client; an empty baseURL means the public API.
func NewDeepgramClient(apiKey, baseURL string) *DeepgramClient {
	if baseURL == "" {
		baseURL = deepgramURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Authorization", "Token "+apiKey).
		SetTimeout(2 * time.Minute)

	return &DeepgramClient{client: c}
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (c *DeepgramClient) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", mimeType).
		SetQueryParams(map[string]string{
			"model":           "nova-2",
			"smart_format":    "true",
			"detect_language": "true",
		}).
		SetBody(data).
		Post("/v1/listen")
	if err != nil {
		return "", fmt.Errorf("deepgram request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("deepgram error: status %d: %s", resp.StatusCode(), resp.String())
	}

	var parsed deepgramResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("decode deepgram: %w", err)
	}

	// тишина это пустой текст, а не ошибка
	if len(parsed.Results.Channels) == 0 ||
		len(parsed.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return parsed.Results.Channels[0].Alternatives[0].Transcript, nil
}
