package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/domain/ports/repository"
	"vehicle-registration-bot/internal/infra/metrics"
	red "vehicle-registration-bot/internal/infra/redis"
)

var _ repository.TemplateRepository = (*templateRepoCacheDecorator)(nil)

// templateRepoCacheDecorator caches the full template catalog in Redis.
// The catalog is tiny and read on every browsing turn, so one key for the
// whole list is enough; writes invalidate it.
type templateRepoCacheDecorator struct {
	inner repository.TemplateRepository
	cache red.RedisClient
	ttl   time.Duration
}

const templateListKey = "templates:all"

func NewTemplateRepoCacheDecorator(inner repository.TemplateRepository, cache red.RedisClient) repository.TemplateRepository {
	return &templateRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   10 * time.Minute,
	}
}

func (d *templateRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Template, error) {
	val, err := d.cache.Get(ctx, templateListKey)
	if err == nil {
		var all []*model.Template
		if json.Unmarshal([]byte(val), &all) == nil {
			metrics.IncCacheRequest("template", "hit")
			return all, nil
		}
	} else if err != redis.Nil {
		// A broken cache must not take template browsing down with it.
	}

	metrics.IncCacheRequest("template", "miss")
	all, err := d.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if bytes, err := json.Marshal(all); err == nil {
		_ = d.cache.Set(ctx, templateListKey, bytes, d.ttl)
	}
	return all, nil
}

func (d *templateRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Template, error) {
	// Individual lookups come through the cached list when it is warm.
	val, err := d.cache.Get(ctx, templateListKey)
	if err == nil {
		var all []*model.Template
		if json.Unmarshal([]byte(val), &all) == nil {
			metrics.IncCacheRequest("template", "hit")
			for _, t := range all {
				if t.ID == id {
					return t, nil
				}
			}
			return nil, nil
		}
	}
	metrics.IncCacheRequest("template", "miss")
	return d.inner.FindByID(ctx, tx, id)
}

func (d *templateRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, t *model.Template) error {
	if err := d.inner.Save(ctx, tx, t); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, templateListKey)
	return nil
}

func (d *templateRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id string) error {
	if err := d.inner.Delete(ctx, tx, id); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, templateListKey)
	return nil
}
