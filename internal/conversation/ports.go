// Package conversation ведёт диалог: запись → распознавание → ответ → история.
package conversation

import (
	"context"
	"errors"

	"github.com/Vovarama1992/language_buddy/internal/audio"
	"github.com/Vovarama1992/language_buddy/internal/langdetect"
	"github.com/Vovarama1992/language_buddy/internal/profile"
)

var (
	ErrInvalidTransition = errors.New("invalid state transition")
	errEmptyReply        = errors.New("empty reply")
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

type Message struct {
	Role             Role                `json:"role"`
	Content          string              `json:"content"`
	DetectedLanguage langdetect.Language `json:"detectedLanguage,omitempty"`
}

type State string

const (
	StateIdle            State = "idle"
	StateRecording       State = "recording"
	StateTranscribing    State = "transcribing"
	StateGeneratingReply State = "generating_reply"
)

const (
	WelcomeText = "Welcome to Language Buddy! Record some speech in English or Japanese."
	ClearedText = "Chat history cleared. Ready for a new conversation!"
)

// HistoryLimit: сколько последних реплик (без system) уходит в генерацию.
const HistoryLimit = 6

// === Внешние зависимости сессии ===

type Recorder interface {
	Start(ctx context.Context) error
	Stop() (audio.Blob, error)
	Recording() bool
}

type Transcriber interface {
	Transcribe(ctx context.Context, blob audio.Blob) (string, error)
}

type ReplyRequest struct {
	Text     string
	Language langdetect.Language
	Profile  profile.Profile
	// History: последние реплики user/assistant в хронологическом порядке,
	// без текущего Text.
	History []Message
}

type ReplyGenerator interface {
	GenerateReply(ctx context.Context, req ReplyRequest) (string, error)
}

// Archiver сохраняет готовые записи; ошибки на сессию не влияют.
type Archiver interface {
	Save(ctx context.Context, blob audio.Blob) (string, error)
}

// === События для подписчиков ===

type EventType string

const (
	EventState   EventType = "state"
	EventMessage EventType = "message"
	EventCleared EventType = "cleared"
)

type Event struct {
	Type    EventType `json:"type"`
	State   State     `json:"state"`
	Message *Message  `json:"message,omitempty"`
}

type Snapshot struct {
	State    State     `json:"state"`
	Messages []Message `json:"messages"`
}
