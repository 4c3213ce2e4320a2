package error_notificator

import "context"

type Notificator interface {
	// Notify: сообщает о сбое внешнего сервиса (STT, GPT, TTS)
	Notify(ctx context.Context, source string, err error, details string) error
}
