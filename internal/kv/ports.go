package kv

import "context"

// Ключи, под которыми лежат сохранённые записи.
const (
	KeyProfile             = "profile"
	KeyConversationHistory = "conversationHistory"
	KeyVocabulary          = "vocabulary"
)

// Store: долговременное строковое хранилище ключ-значение.
// Каждый Set перезаписывает значение целиком и атомарен для читателя.
type Store interface {
	// Get возвращает ok=false, если ключа нет (это не ошибка).
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
