package repository

import (
	"context"

	"vehicle-registration-bot/internal/domain/model"
)

type AuditRepository interface {
	Append(ctx context.Context, tx Tx, event string, payload any) error
	ListRecent(ctx context.Context, tx Tx, limit int) ([]*model.Audit, error)
}
