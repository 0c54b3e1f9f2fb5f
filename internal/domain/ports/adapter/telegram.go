package adapter

import "context"

// TelegramBotAdapter is the outbound message transport.
type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, telegramID int64, text string) error
}
