package repository

import (
	"context"

	"vehicle-registration-bot/internal/domain/model"
)

type TemplateRepository interface {
	Save(ctx context.Context, tx Tx, t *model.Template) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Template, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Template, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
