package repository

import (
	"context"

	"vehicle-registration-bot/internal/domain/model"
)

type FileRepository interface {
	Attach(ctx context.Context, tx Tx, f *model.File) error
	UpdateLocalPath(ctx context.Context, tx Tx, fileID, localPath string) error
	ListByRequest(ctx context.Context, tx Tx, requestID string) ([]*model.File, error)
	CountFiles(ctx context.Context, tx Tx) (int, error)
}
