package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Vovarama1992/language_buddy/internal/conversation"
	"github.com/Vovarama1992/language_buddy/internal/error_notificator"
	"github.com/Vovarama1992/language_buddy/internal/metrics"
)

type Service struct {
	client   Completer
	counter  Counter
	// budget ограничивает токены истории; 0 значит без ограничения,
	// тогда модель получает все реплики, которые передала сессия.
	budget   int
	notifier error_notificator.Notificator
	log      *zap.Logger
}

func NewService(
	client Completer,
	counter Counter,
	budget int,
	notifier error_notificator.Notificator,
	log *zap.Logger,
) *Service {
	if budget < 0 {
		budget = 0
	}
	return &Service{
		client:   client,
		counter:  counter,
		budget:   budget,
		notifier: notifier,
		log:      log.Named("ai"),
	}
}

// диагностика ошибок GPT
func analyzeOpenAIError(err error) string {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "context deadline exceeded"):
		return "GPT не ответил вовремя."
	case strings.Contains(msg, "status code: 401"):
		return "Неверный API-ключ OpenAI."
	case strings.Contains(msg, "status code: 404"):
		return "Модель не найдена."
	case strings.Contains(msg, "status code: 429"):
		return "Превышен лимит OpenAI."
	case strings.Contains(msg, "status code: 400"):
		return "Некорректный запрос к OpenAI."
	case strings.Contains(msg, "status code: 500"):
		return "Внутренняя ошибка OpenAI."
	}
	return "Неизвестная ошибка OpenAI: " + err.Error()
}

// === главный метод ===
func (s *Service) GenerateReply(ctx context.Context, req conversation.ReplyRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", fmt.Errorf("%w: no text provided", ErrReplyGenerationFailed)
	}

	messages := s.buildMessages(req)

	start := time.Now()
	reply, err := s.client.GetCompletion(ctx, messages)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = fmt.Errorf("empty completion")
	}
	metrics.ObserveCall(metrics.OpReply, start, err)

	s.log.Info("reply",
		zap.String("lang", string(req.Language)),
		zap.Int("history", len(messages)-2),
		zap.Duration("took", time.Since(start)),
		zap.Error(err),
	)

	if err != nil {
		if s.notifier != nil {
			_ = s.notifier.Notify(ctx, metrics.OpReply, err,
				fmt.Sprintf("язык: %s\n%s", req.Language, analyzeOpenAIError(err)))
		}
		return "", fmt.Errorf("%w: %w", ErrReplyGenerationFailed, err)
	}
	return strings.TrimSpace(reply), nil
}

func (s *Service) buildMessages(req conversation.ReplyRequest) []openai.ChatCompletionMessage {
	history := s.fitHistory(req.History)

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: BuildSystemPrompt(req.Profile, req.Language),
	})

	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == conversation.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	// последнее сообщение
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Text,
	})
	return messages
}

// fitHistory drops system and empty turns. With a budget set it also drops
// the oldest turns until the rest fits.
func (s *Service) fitHistory(history []conversation.Message) []conversation.Message {
	out := make([]conversation.Message, 0, len(history))
	for _, m := range history {
		if m.Role == conversation.RoleSystem || strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, m)
	}
	if s.budget == 0 || s.counter == nil {
		return out
	}

	total := 0
	start := len(out)
	for i := len(out) - 1; i >= 0; i-- {
		tokens := s.counter.Count(out[i].Content)
		if total+tokens > s.budget {
			break
		}
		total += tokens
		start = i
	}
	return out[start:]
}
