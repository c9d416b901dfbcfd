//go:build !integration

package postgres

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/domain/ports/repository"
	red "vehicle-registration-bot/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerTemplateRepo mocks the database repository the decorator wraps.
type mockInnerTemplateRepo struct {
	SaveFunc     func(ctx context.Context, tx repository.Tx, t *model.Template) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Template, error)
	ListAllFunc  func(ctx context.Context, tx repository.Tx) ([]*model.Template, error)
	DeleteFunc   func(ctx context.Context, tx repository.Tx, id string) error
}

var _ repository.TemplateRepository = (*mockInnerTemplateRepo)(nil)

func (m *mockInnerTemplateRepo) Save(ctx context.Context, tx repository.Tx, t *model.Template) error {
	return m.SaveFunc(ctx, tx, t)
}
func (m *mockInnerTemplateRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Template, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerTemplateRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Template, error) {
	return m.ListAllFunc(ctx, tx)
}
func (m *mockInnerTemplateRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	return m.DeleteFunc(ctx, tx, id)
}

// mockRedisClient mocks our Redis client wrapper. Unset hooks behave like an
// empty cache.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = (*mockRedisClient)(nil)

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc == nil {
		return "", redis.Nil
	}
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error {
	if m.PingFunc == nil {
		return nil
	}
	return m.PingFunc(ctx)
}
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	if m.IncrFunc == nil {
		return 0, nil
	}
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	if m.ExpireFunc == nil {
		return nil
	}
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error {
	if m.CloseFunc == nil {
		return nil
	}
	return m.CloseFunc()
}
