//go:build !integration

package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/domain/ports/repository"
)

func TestTemplateRepoCacheDecorator(t *testing.T) {
	ctx := context.Background()
	catalog := []*model.Template{
		{ID: "tpl-1", Name: "carbon", TelegramFileID: "tg-1"},
		{ID: "tpl-2", Name: "chrome", LocalPath: "chrome.png"},
	}
	catalogJSON, _ := json.Marshal(catalog)

	t.Run("ListAll returns from cache on hit", func(t *testing.T) {
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				return string(catalogJSON), nil
			},
		}
		innerCalled := false
		inner := &mockInnerTemplateRepo{
			ListAllFunc: func(ctx context.Context, tx repository.Tx) ([]*model.Template, error) {
				innerCalled = true
				return nil, nil
			},
		}

		decorator := NewTemplateRepoCacheDecorator(inner, mockRedis)

		got, err := decorator.ListAll(ctx, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if innerCalled {
			t.Error("inner repository should not be called on a cache hit")
		}
		if len(got) != 2 || got[0].ID != "tpl-1" {
			t.Errorf("wrong catalog from cache: %+v", got)
		}
	})

	t.Run("ListAll falls through and fills cache on miss", func(t *testing.T) {
		var setKey string
		mockRedis := &mockRedisClient{
			SetFunc: func(ctx context.Context, key string, value interface{}, _ time.Duration) error {
				setKey = key
				return nil
			},
		}
		inner := &mockInnerTemplateRepo{
			ListAllFunc: func(ctx context.Context, tx repository.Tx) ([]*model.Template, error) {
				return catalog, nil
			},
		}

		decorator := NewTemplateRepoCacheDecorator(inner, mockRedis)

		got, err := decorator.ListAll(ctx, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 2 {
			t.Errorf("got %d templates, want 2", len(got))
		}
		if setKey != templateListKey {
			t.Errorf("cache fill key = %q, want %q", setKey, templateListKey)
		}
	})

	t.Run("FindByID resolves against the cached list", func(t *testing.T) {
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				return string(catalogJSON), nil
			},
		}
		inner := &mockInnerTemplateRepo{
			FindByIDFunc: func(ctx context.Context, tx repository.Tx, id string) (*model.Template, error) {
				t.Error("inner repository should not be called on a cache hit")
				return nil, nil
			},
		}

		decorator := NewTemplateRepoCacheDecorator(inner, mockRedis)

		got, err := decorator.FindByID(ctx, nil, "tpl-2")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got == nil || got.Name != "chrome" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("Save invalidates the cache", func(t *testing.T) {
		var deleted []string
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				deleted = append(deleted, keys...)
				return nil
			},
		}
		inner := &mockInnerTemplateRepo{
			SaveFunc: func(ctx context.Context, tx repository.Tx, tpl *model.Template) error {
				return nil
			},
		}

		decorator := NewTemplateRepoCacheDecorator(inner, mockRedis)

		if err := decorator.Save(ctx, nil, catalog[0]); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(deleted) != 1 || deleted[0] != templateListKey {
			t.Errorf("deleted keys = %v", deleted)
		}
	})
}
