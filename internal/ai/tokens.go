package ai

import (
	tiktoken "github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// TokenCounter считает токены энкодером модели, а без него эвристикой.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter loads the tokenizer for model. The encoder may need a
// network fetch on first use; on failure the counter falls back to
// EstimateTokens.
func NewTokenCounter(model string, log *zap.Logger) *TokenCounter {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		log.Warn("tokenizer init fail, using estimate", zap.String("model", model), zap.Error(err))
		return &TokenCounter{}
	}
	return &TokenCounter{enc: enc}
}

func (c *TokenCounter) Count(text string) int {
	if c == nil || c.enc == nil {
		return EstimateTokens(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// EstimateTokens: ~4 ASCII символа на токен, остальное по токену на символ.
func EstimateTokens(text string) int {
	weight := 0
	for _, r := range text {
		if r <= 127 {
			weight++
		} else {
			weight += 4
		}
	}
	return (weight + 3) / 4
}
