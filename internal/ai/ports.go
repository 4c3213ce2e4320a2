package ai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

var ErrReplyGenerationFailed = errors.New("reply generation failed")

// Completer: чат-модель.
type Completer interface {
	GetCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

// Counter считает токены в тексте.
type Counter interface {
	Count(text string) int
}
