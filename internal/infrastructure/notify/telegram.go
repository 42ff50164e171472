package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Quit123/PCB-Detection/internal/domain/port"
)

// TelegramNotifier отправляет уведомления конвейера в Telegram-чат.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier создаёт нотификатор по токену бота и ID чата.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramNotifier{api: api, chatID: chatID}, nil
}

// Alert отправляет текстовое сообщение в настроенный чат.
func (n *TelegramNotifier) Alert(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	_, err := n.api.Send(msg)
	return err
}

// Проверка реализации интерфейса
var _ port.AlertNotifier = (*TelegramNotifier)(nil)
