package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/domain/ports/adapter"
)

var _ adapter.TelegramBotAdapter = (*NoopBot)(nil)
var _ adapter.AdminNotifier = (*NoopBot)(nil)

// NoopBot satisfies the outbound bot surface without talking to Telegram.
// Selected in dev mode when no bot token is configured; every outbound
// message is logged instead of sent.
type NoopBot struct {
	log *zerolog.Logger
}

func NewNoopBot(logger *zerolog.Logger) *NoopBot {
	return &NoopBot{log: logger}
}

func (n *NoopBot) SendMessage(_ context.Context, telegramID int64, text string) error {
	n.log.Debug().Int64("chat_id", telegramID).Str("text", text).Msg("noop send")
	return nil
}

func (n *NoopBot) SendButtons(_ context.Context, telegramID int64, text string, rows [][]adapter.InlineButton) error {
	n.log.Debug().Int64("chat_id", telegramID).Str("text", text).Int("rows", len(rows)).Msg("noop send buttons")
	return nil
}

func (n *NoopBot) SendPhoto(_ context.Context, telegramID int64, fileRef, caption string, _ [][]adapter.InlineButton) error {
	n.log.Debug().Int64("chat_id", telegramID).Str("file", fileRef).Str("caption", caption).Msg("noop send photo")
	return nil
}

func (n *NoopBot) NotifySubmitted(context.Context, *model.Request) {}
