package error_notificator

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramInfra шлёт уведомления в админский чат.
type TelegramInfra struct {
	bot         *tgbotapi.BotAPI
	adminChatID int64
	log         *zap.Logger
}

func NewTelegramInfra(token string, adminChatID int64, log *zap.Logger) (*TelegramInfra, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram notifier: %w", err)
	}
	return &TelegramInfra{
		bot:         bot,
		adminChatID: adminChatID,
		log:         log.Named("error_notificator"),
	}, nil
}

func (i *TelegramInfra) Notify(ctx context.Context, source string, err error, details string) error {
	text := fmt.Sprintf(
		"❗ Ошибка в language buddy (%s)\n\nОшибка: %v\n\nДетали: %s",
		source,
		err,
		details,
	)

	if _, sendErr := i.bot.Send(tgbotapi.NewMessage(i.adminChatID, text)); sendErr != nil {
		i.log.Warn("send fail", zap.String("source", source), zap.Error(sendErr))
		return sendErr
	}
	return nil
}

// LogInfra: запасной вариант, когда телеграм не настроен.
type LogInfra struct {
	log *zap.Logger
}

func NewLogInfra(log *zap.Logger) *LogInfra {
	return &LogInfra{log: log.Named("error_notificator")}
}

func (i *LogInfra) Notify(ctx context.Context, source string, err error, details string) error {
	i.log.Error("collaborator failure",
		zap.String("source", source),
		zap.String("details", details),
		zap.Error(err),
	)
	return nil
}
