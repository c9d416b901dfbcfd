//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUserUC_RegisterOrFetch(t *testing.T) {
	users := newMemUserRepo()
	uc := NewUserUseCase(users, &stubTxManager{}, nopLogger())
	ctx := context.Background()

	created, err := uc.RegisterOrFetch(ctx, 42, "driver42", "Ivan", "Petrov")
	if err != nil {
		t.Fatalf("RegisterOrFetch: %v", err)
	}
	if created.ID == "" || created.TelegramID != 42 || created.FirstName != "Ivan" {
		t.Fatalf("created = %+v", created)
	}

	// Second contact with a changed username must update, not duplicate.
	again, err := uc.RegisterOrFetch(ctx, 42, "driver42new", "", "")
	if err != nil {
		t.Fatalf("RegisterOrFetch (second): %v", err)
	}
	if again.ID != created.ID {
		t.Fatalf("second call created a new user")
	}
	if again.Username != "driver42new" {
		t.Fatalf("username not refreshed: %q", again.Username)
	}
	if again.FirstName != "Ivan" {
		t.Fatalf("empty first name must not erase the stored one")
	}
	if n, _ := uc.Count(ctx); n != 1 {
		t.Fatalf("user count = %d, want 1", n)
	}
}

func TestUserUC_RegisterOrFetchSaveFailure(t *testing.T) {
	users := newMemUserRepo()
	users.saveErr = errors.New("unique violation")
	uc := NewUserUseCase(users, &stubTxManager{}, nopLogger())

	if _, err := uc.RegisterOrFetch(context.Background(), 42, "driver42", "", ""); err == nil {
		t.Fatalf("expected save error to propagate")
	}
}

func TestUserUC_CountInactiveSince(t *testing.T) {
	users := newMemUserRepo()
	uc := NewUserUseCase(users, &stubTxManager{}, nopLogger())
	ctx := context.Background()

	if _, err := uc.RegisterOrFetch(ctx, 1, "a", "", ""); err != nil {
		t.Fatalf("RegisterOrFetch: %v", err)
	}
	if _, err := uc.RegisterOrFetch(ctx, 2, "b", "", ""); err != nil {
		t.Fatalf("RegisterOrFetch: %v", err)
	}

	n, err := uc.CountInactiveSince(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountInactiveSince: %v", err)
	}
	if n != 0 {
		t.Fatalf("inactive = %d, want 0 for freshly seen users", n)
	}

	n, err = uc.CountInactiveSince(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("CountInactiveSince: %v", err)
	}
	if n != 2 {
		t.Fatalf("inactive = %d, want 2", n)
	}
}
