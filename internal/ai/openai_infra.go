package ai

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

const (
	temperature = 0.7
	maxTokens   = 1000
)

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(client *openai.Client, model string) *OpenAIClient {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{client: client, model: model}
}

func (c *OpenAIClient) Model() string { return c.model }

func (c *OpenAIClient) GetCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
