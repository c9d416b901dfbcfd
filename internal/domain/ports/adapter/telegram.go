package adapter

import "context"

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// TelegramBotAdapter is the narrow outbound surface the core needs from the
// chat transport: plain texts, button menus, and photo messages.
type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, telegramID int64, text string) error
	SendButtons(ctx context.Context, telegramID int64, text string, rows [][]InlineButton) error
	SendPhoto(ctx context.Context, telegramID int64, fileRef, caption string, rows [][]InlineButton) error
}
