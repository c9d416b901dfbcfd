package usecase

import (
	"context"

	"vehicle-registration-bot/internal/domain"
	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/domain/ports/repository"
	"vehicle-registration-bot/internal/flow"
	"vehicle-registration-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time checks
var (
	_ TemplateUseCase     = (*templateUC)(nil)
	_ flow.TemplateSource = (*templateUC)(nil)
)

// TemplateUseCase serves the wrap-template catalog: read-only browsing for
// conversations, full management for administrators.
type TemplateUseCase interface {
	flow.TemplateSource

	ListAll(ctx context.Context) ([]*model.Template, error)
	Create(ctx context.Context, name, description, telegramFileID, localPath string) (*model.Template, error)
	Delete(ctx context.Context, id string) error
}

type templateUC struct {
	templates repository.TemplateRepository
	log       *zerolog.Logger
}

func NewTemplateUseCase(templates repository.TemplateRepository, logger *zerolog.Logger) *templateUC {
	return &templateUC{templates: templates, log: logger}
}

// ListSelectable filters the catalog down to templates that can actually be
// rendered in chat. Ordering follows the repository (insertion order).
func (u *templateUC) ListSelectable(ctx context.Context) ([]*model.Template, error) {
	defer logging.TraceDuration(u.log, "TemplateUC.ListSelectable")()

	all, err := u.templates.ListAll(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Template, 0, len(all))
	for _, t := range all {
		if t.Selectable() {
			out = append(out, t)
		}
	}
	return out, nil
}

func (u *templateUC) Get(ctx context.Context, id string) (*model.Template, error) {
	defer logging.TraceDuration(u.log, "TemplateUC.Get")()
	t, err := u.templates.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (u *templateUC) ListAll(ctx context.Context) ([]*model.Template, error) {
	defer logging.TraceDuration(u.log, "TemplateUC.ListAll")()
	return u.templates.ListAll(ctx, repository.NoTX)
}

func (u *templateUC) Create(ctx context.Context, name, description, telegramFileID, localPath string) (*model.Template, error) {
	defer logging.TraceDuration(u.log, "TemplateUC.Create")()

	t, err := model.NewTemplate(name, description, telegramFileID, localPath)
	if err != nil {
		return nil, err
	}
	if err := u.templates.Save(ctx, repository.NoTX, t); err != nil {
		return nil, err
	}
	u.log.Info().Str("template_id", t.ID).Str("name", t.Name).Msg("template created")
	return t, nil
}

func (u *templateUC) Delete(ctx context.Context, id string) error {
	defer logging.TraceDuration(u.log, "TemplateUC.Delete")()
	return u.templates.Delete(ctx, repository.NoTX, id)
}
