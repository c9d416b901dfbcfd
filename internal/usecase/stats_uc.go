package usecase

import (
	"context"
	"time"

	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	Totals(ctx context.Context) (users int, byStatus map[model.RequestStatus]int, files int, err error)
	SubmittedSince(ctx context.Context, since time.Time) (int, error)
	InactiveUsers(ctx context.Context, olderThan time.Time) (int, error)
	RecentAudit(ctx context.Context, limit int) ([]*model.Audit, error)
}

type statsUC struct {
	users    repository.UserRepository
	requests repository.RequestRepository
	files    repository.FileRepository
	audits   repository.AuditRepository

	log *zerolog.Logger
}

func NewStatsUseCase(users repository.UserRepository, requests repository.RequestRepository, files repository.FileRepository, audits repository.AuditRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{users: users, requests: requests, files: files, audits: audits, log: logger}
}

func (s *statsUC) Totals(ctx context.Context) (int, map[model.RequestStatus]int, int, error) {
	users, err := s.users.CountUsers(ctx, repository.NoTX)
	if err != nil {
		return 0, nil, 0, err
	}
	byStatus, err := s.requests.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return 0, nil, 0, err
	}
	files, err := s.files.CountFiles(ctx, repository.NoTX)
	if err != nil {
		return 0, nil, 0, err
	}
	return users, byStatus, files, nil
}

func (s *statsUC) SubmittedSince(ctx context.Context, since time.Time) (int, error) {
	return s.requests.CountSubmittedSince(ctx, repository.NoTX, since)
}

func (s *statsUC) InactiveUsers(ctx context.Context, olderThan time.Time) (int, error) {
	return s.users.CountInactiveUsers(ctx, repository.NoTX, olderThan)
}

func (s *statsUC) RecentAudit(ctx context.Context, limit int) ([]*model.Audit, error) {
	return s.audits.ListRecent(ctx, repository.NoTX, limit)
}
