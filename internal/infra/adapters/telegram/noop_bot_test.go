//go:build !integration

package telegram

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/domain/ports/adapter"
)

func TestNoopBotNeverFails(t *testing.T) {
	nop := zerolog.Nop()
	bot := NewNoopBot(&nop)
	ctx := context.Background()

	if err := bot.SendMessage(ctx, 1, "hi"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	rows := [][]adapter.InlineButton{{{Text: "Да", Data: "yes"}}}
	if err := bot.SendButtons(ctx, 1, "menu", rows); err != nil {
		t.Fatalf("SendButtons() error = %v", err)
	}
	if err := bot.SendPhoto(ctx, 1, "file-1", "caption", nil); err != nil {
		t.Fatalf("SendPhoto() error = %v", err)
	}

	req, err := model.NewRequest("", "u1", model.CategoryLight)
	if err != nil {
		t.Fatalf("model.NewRequest() failed: %v", err)
	}
	bot.NotifySubmitted(ctx, req)
}
