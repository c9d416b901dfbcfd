package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"vehicle-registration-bot/internal/domain"
)

// Template is a selectable wrap design. Exactly one of TelegramFileID (content
// already hosted by the chat platform) or LocalPath (file on our disk) is set.
// Templates are created by administrators and read-only for conversations.
type Template struct {
	ID             string
	Name           string
	Description    string
	TelegramFileID string
	LocalPath      string
	CreatedAt      time.Time
}

func NewTemplate(name, description, telegramFileID, localPath string) (*Template, error) {
	if name == "" {
		return nil, domain.ErrInvalidArgument
	}
	if (telegramFileID == "") == (localPath == "") {
		return nil, domain.ErrInvalidArgument
	}
	return &Template{
		ID:             uuid.NewString(),
		Name:           name,
		Description:    description,
		TelegramFileID: telegramFileID,
		LocalPath:      localPath,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// Selectable reports whether the template can be shown in the browsing flow:
// it needs a platform file id or a local image path.
func (t *Template) Selectable() bool {
	if t.TelegramFileID != "" {
		return true
	}
	p := strings.ToLower(t.LocalPath)
	return strings.HasSuffix(p, ".png") || strings.HasSuffix(p, ".jpg") || strings.HasSuffix(p, ".jpeg")
}
