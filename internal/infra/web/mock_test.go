//go:build !integration

package web

import (
	"context"
	"time"

	"vehicle-registration-bot/internal/domain"
	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/flow"
	"vehicle-registration-bot/internal/usecase"
)

// --- Mock use cases. Unset hooks return empty results. ---

type mockStatsUC struct {
	TotalsFunc         func(ctx context.Context) (int, map[model.RequestStatus]int, int, error)
	SubmittedSinceFunc func(ctx context.Context, since time.Time) (int, error)
	RecentAuditFunc    func(ctx context.Context, limit int) ([]*model.Audit, error)
}

var _ usecase.StatsUseCase = (*mockStatsUC)(nil)

func (m *mockStatsUC) Totals(ctx context.Context) (int, map[model.RequestStatus]int, int, error) {
	if m.TotalsFunc == nil {
		return 0, map[model.RequestStatus]int{}, 0, nil
	}
	return m.TotalsFunc(ctx)
}

func (m *mockStatsUC) SubmittedSince(ctx context.Context, since time.Time) (int, error) {
	if m.SubmittedSinceFunc == nil {
		return 0, nil
	}
	return m.SubmittedSinceFunc(ctx, since)
}

func (m *mockStatsUC) InactiveUsers(ctx context.Context, olderThan time.Time) (int, error) {
	return 0, nil
}

func (m *mockStatsUC) RecentAudit(ctx context.Context, limit int) ([]*model.Audit, error) {
	if m.RecentAuditFunc == nil {
		return nil, nil
	}
	return m.RecentAuditFunc(ctx, limit)
}

type mockRequestUC struct {
	GetFunc        func(ctx context.Context, id string) (*model.Request, error)
	FilesFunc      func(ctx context.Context, requestID string) ([]*model.File, error)
	ListRecentFunc func(ctx context.Context, limit int) ([]*model.Request, error)
	ListByStatFunc func(ctx context.Context, status model.RequestStatus, limit int) ([]*model.Request, error)
	ReviewFunc     func(ctx context.Context, id string, approve bool, reviewerID string) (*model.Request, error)
}

var _ usecase.RequestUseCase = (*mockRequestUC)(nil)

func (m *mockRequestUC) CreateDraft(ctx context.Context, userID string, category model.Category, sess *flow.Session) (*model.Request, error) {
	return nil, nil
}
func (m *mockRequestUC) Finalize(ctx context.Context, userID string, category model.Category, sess *flow.Session) (*model.Request, error) {
	return nil, nil
}
func (m *mockRequestUC) Submit(ctx context.Context, requestID string) (*model.Request, error) {
	return nil, nil
}
func (m *mockRequestUC) AttachPhoto(ctx context.Context, requestID string, kind model.FileKind, fileID string) error {
	return nil
}

func (m *mockRequestUC) Get(ctx context.Context, id string) (*model.Request, error) {
	if m.GetFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.GetFunc(ctx, id)
}

func (m *mockRequestUC) Files(ctx context.Context, requestID string) ([]*model.File, error) {
	if m.FilesFunc == nil {
		return nil, nil
	}
	return m.FilesFunc(ctx, requestID)
}

func (m *mockRequestUC) ListByStatus(ctx context.Context, status model.RequestStatus, limit int) ([]*model.Request, error) {
	if m.ListByStatFunc == nil {
		return nil, nil
	}
	return m.ListByStatFunc(ctx, status, limit)
}

func (m *mockRequestUC) ListRecent(ctx context.Context, limit int) ([]*model.Request, error) {
	if m.ListRecentFunc == nil {
		return nil, nil
	}
	return m.ListRecentFunc(ctx, limit)
}

func (m *mockRequestUC) ListByUser(ctx context.Context, userID string) ([]*model.Request, error) {
	return nil, nil
}

func (m *mockRequestUC) Review(ctx context.Context, id string, approve bool, reviewerID string) (*model.Request, error) {
	if m.ReviewFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.ReviewFunc(ctx, id, approve, reviewerID)
}

type mockTemplateUC struct {
	ListAllFunc func(ctx context.Context) ([]*model.Template, error)
	CreateFunc  func(ctx context.Context, name, description, telegramFileID, localPath string) (*model.Template, error)
	DeleteFunc  func(ctx context.Context, id string) error
}

var _ usecase.TemplateUseCase = (*mockTemplateUC)(nil)

func (m *mockTemplateUC) ListSelectable(ctx context.Context) ([]*model.Template, error) {
	return nil, nil
}
func (m *mockTemplateUC) Get(ctx context.Context, id string) (*model.Template, error) {
	return nil, domain.ErrNotFound
}

func (m *mockTemplateUC) ListAll(ctx context.Context) ([]*model.Template, error) {
	if m.ListAllFunc == nil {
		return nil, nil
	}
	return m.ListAllFunc(ctx)
}

func (m *mockTemplateUC) Create(ctx context.Context, name, description, telegramFileID, localPath string) (*model.Template, error) {
	if m.CreateFunc == nil {
		return model.NewTemplate(name, description, telegramFileID, localPath)
	}
	return m.CreateFunc(ctx, name, description, telegramFileID, localPath)
}

func (m *mockTemplateUC) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc == nil {
		return nil
	}
	return m.DeleteFunc(ctx, id)
}

type mockUserUC struct{}

var _ usecase.UserUseCase = (*mockUserUC)(nil)

func (m *mockUserUC) RegisterOrFetch(ctx context.Context, tgID int64, username, firstName, lastName string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserUC) GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	return nil, domain.ErrNotFound
}
func (m *mockUserUC) Count(ctx context.Context) (int, error) { return 0, nil }
func (m *mockUserUC) CountInactiveSince(ctx context.Context, since time.Time) (int, error) {
	return 0, nil
}
