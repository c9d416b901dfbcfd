//go:build !integration

package usecase

import (
	"context"
	"testing"
	"time"

	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/flow"
)

func TestStatsUC_Totals(t *testing.T) {
	users := newMemUserRepo()
	requests := newMemRequestRepo()
	files := newMemFileRepo()
	audits := newMemAuditRepo()

	userUC := NewUserUseCase(users, &stubTxManager{}, nopLogger())
	reqUC := NewRequestUseCase(requests, files, audits, &stubTxManager{}, nil, nopLogger())
	statsUC := NewStatsUseCase(users, requests, files, audits, nopLogger())
	ctx := context.Background()

	if _, err := userUC.RegisterOrFetch(ctx, 1, "a", "", ""); err != nil {
		t.Fatalf("RegisterOrFetch: %v", err)
	}

	draft, err := reqUC.CreateDraft(ctx, "user-1", model.CategoryCargo, nil)
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if err := reqUC.AttachPhoto(ctx, draft.ID, model.FileKindAutoPhoto, "tg-1"); err != nil {
		t.Fatalf("AttachPhoto: %v", err)
	}
	if _, err := reqUC.Finalize(ctx, "user-2", model.CategoryLight, &flow.Session{}); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	nUsers, byStatus, nFiles, err := statsUC.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if nUsers != 1 || nFiles != 1 {
		t.Fatalf("users=%d files=%d", nUsers, nFiles)
	}
	if byStatus[model.StatusDraft] != 1 || byStatus[model.StatusSubmitted] != 1 {
		t.Fatalf("byStatus = %v", byStatus)
	}

	n, err := statsUC.SubmittedSince(ctx, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("SubmittedSince: %v", err)
	}
	if n != 1 {
		t.Fatalf("submitted since = %d, want 1", n)
	}

	recent, err := statsUC.RecentAudit(ctx, 10)
	if err != nil {
		t.Fatalf("RecentAudit: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(recent))
	}
	if recent[0].Event != "request_submitted" {
		t.Fatalf("newest audit event = %q", recent[0].Event)
	}
}
