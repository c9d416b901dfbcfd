package model

import (
	"time"

	"github.com/google/uuid"

	"vehicle-registration-bot/internal/domain"
)

// FileKind names the photo slot a descriptor belongs to.
type FileKind string

const (
	FileKindAutoPhoto FileKind = "auto_photo"
	FileKindStsPhoto  FileKind = "sts_photo"
)

// File describes one uploaded photo attached to a request. TelegramFileID is
// the external reference; LocalPath stays empty until the download worker has
// fetched the bytes (or forever, in fake-files mode).
type File struct {
	ID             string
	RequestID      string
	Kind           FileKind
	TelegramFileID string
	LocalPath      string
	CreatedAt      time.Time
}

func NewFile(requestID string, kind FileKind, telegramFileID string) (*File, error) {
	if requestID == "" || telegramFileID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if kind != FileKindAutoPhoto && kind != FileKindStsPhoto {
		return nil, domain.ErrInvalidArgument
	}
	return &File{
		ID:             uuid.NewString(),
		RequestID:      requestID,
		Kind:           kind,
		TelegramFileID: telegramFileID,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
