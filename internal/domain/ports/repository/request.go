package repository

import (
	"context"
	"time"

	"vehicle-registration-bot/internal/domain/model"
)

type RequestRepository interface {
	Save(ctx context.Context, tx Tx, r *model.Request) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Request, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Request, error)
	ListByStatus(ctx context.Context, tx Tx, status model.RequestStatus, limit int) ([]*model.Request, error)
	ListRecent(ctx context.Context, tx Tx, limit int) ([]*model.Request, error)
	CountByStatus(ctx context.Context, tx Tx) (map[model.RequestStatus]int, error)
	CountSubmittedSince(ctx context.Context, tx Tx, since time.Time) (int, error)
}
