package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vovarama1992/language_buddy/internal/conversation"
	"github.com/Vovarama1992/language_buddy/internal/langdetect"
	"github.com/Vovarama1992/language_buddy/internal/profile"
)

type fakeCompleter struct {
	messages []openai.ChatCompletionMessage
	reply    string
	err      error
}

func (f *fakeCompleter) GetCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	f.messages = messages
	return f.reply, f.err
}

type fakeNotifier struct {
	details []string
}

func (n *fakeNotifier) Notify(ctx context.Context, source string, err error, details string) error {
	n.details = append(n.details, details)
	return nil
}

type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

func TestGenerateReply_Messages(t *testing.T) {
	c := &fakeCompleter{reply: " こんにちは (hello) "}
	svc := NewService(c, wordCounter{}, 100, nil, zap.NewNop())

	reply, err := svc.GenerateReply(context.Background(), conversation.ReplyRequest{
		Text:     "hello",
		Language: langdetect.English,
		Profile:  profile.Default(),
		History: []conversation.Message{
			{Role: conversation.RoleUser, Content: "hi"},
			{Role: conversation.RoleAssistant, Content: "やあ"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "こんにちは (hello)", reply)

	require.Len(t, c.messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, c.messages[0].Role)
	assert.Contains(t, c.messages[0].Content, "speaking in english")
	assert.Equal(t, openai.ChatMessageRoleUser, c.messages[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, c.messages[2].Role)
	assert.Equal(t, "hello", c.messages[3].Content)
}

func TestGenerateReply_Failure(t *testing.T) {
	n := &fakeNotifier{}
	c := &fakeCompleter{err: errors.New("error, status code: 429, message: rate limit")}
	svc := NewService(c, nil, 0, n, zap.NewNop())

	_, err := svc.GenerateReply(context.Background(), conversation.ReplyRequest{Text: "hello"})
	assert.ErrorIs(t, err, ErrReplyGenerationFailed)
	require.Len(t, n.details, 1)
	assert.Contains(t, n.details[0], "Превышен лимит OpenAI.")
}

func TestGenerateReply_EmptyCompletion(t *testing.T) {
	svc := NewService(&fakeCompleter{reply: "  "}, nil, 0, nil, zap.NewNop())
	_, err := svc.GenerateReply(context.Background(), conversation.ReplyRequest{Text: "hello"})
	assert.ErrorIs(t, err, ErrReplyGenerationFailed)
}

func TestGenerateReply_NoText(t *testing.T) {
	c := &fakeCompleter{reply: "x"}
	svc := NewService(c, nil, 0, nil, zap.NewNop())
	_, err := svc.GenerateReply(context.Background(), conversation.ReplyRequest{Text: " "})
	assert.ErrorIs(t, err, ErrReplyGenerationFailed)
	assert.Nil(t, c.messages)
}

func TestFitHistory_Budget(t *testing.T) {
	svc := NewService(&fakeCompleter{}, wordCounter{}, 5, nil, zap.NewNop())
	history := []conversation.Message{
		{Role: conversation.RoleUser, Content: "one two three"},
		{Role: conversation.RoleSystem, Content: "notice"},
		{Role: conversation.RoleAssistant, Content: "four five"},
		{Role: conversation.RoleUser, Content: "six seven eight"},
	}

	got := svc.fitHistory(history)
	require.Len(t, got, 2)
	assert.Equal(t, "four five", got[0].Content)
	assert.Equal(t, "six seven eight", got[1].Content)
}

func TestGenerateReply_DefaultKeepsWholeHistory(t *testing.T) {
	c := &fakeCompleter{reply: "ok"}
	var counter *TokenCounter // эвристика без энкодера
	svc := NewService(c, counter, 0, nil, zap.NewNop())

	long := strings.Repeat("word ", 900)
	var history []conversation.Message
	for i := 0; i < 3; i++ {
		history = append(history,
			conversation.Message{Role: conversation.RoleUser, Content: "question"},
			conversation.Message{Role: conversation.RoleAssistant, Content: long},
		)
	}

	_, err := svc.GenerateReply(context.Background(), conversation.ReplyRequest{
		Text:     "next",
		Language: langdetect.English,
		Profile:  profile.Default(),
		History:  history,
	})
	require.NoError(t, err)
	// system + 6 реплик + новый текст
	require.Len(t, c.messages, 8)
	for i, m := range history {
		assert.Equal(t, m.Content, c.messages[i+1].Content)
	}
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 3, EstimateTokens("日本語"))

	var c *TokenCounter
	assert.Equal(t, 3, c.Count("日本語"))
}

func TestBuildSystemPrompt(t *testing.T) {
	p := profile.Profile{NativeLanguage: "spanish", Level: profile.Advanced, Interests: []string{"anime", "cooking"}}

	jp := BuildSystemPrompt(p, langdetect.Japanese)
	assert.Contains(t, jp, "The user's native language is spanish.")
	assert.Contains(t, jp, "Their Japanese level is advanced.")
	assert.Contains(t, jp, "Their interests include: anime, cooking.")
	assert.Contains(t, jp, "Since they are speaking in Japanese:")
	assert.Contains(t, jp, "(anime, cooking)")

	en := BuildSystemPrompt(profile.Default(), langdetect.English)
	assert.Contains(t, en, "Since they are speaking in English:")
	assert.Contains(t, en, "Their Japanese level is beginner.")
	assert.Contains(t, en, "practical, everyday Japanese")
	assert.NotContains(t, en, "interests include")
}
