package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/domain/ports/repository"
	"telegram-lead-bot/internal/infra/metrics"
	red "telegram-lead-bot/internal/infra/redis"
)

var _ repository.UserRepository = (*userRepoCacheDecorator)(nil)

// userRepoCacheDecorator caches user lookups by Telegram ID. Opt-in clicks
// look the user up on every press, so the hot path skips Postgres.
type userRepoCacheDecorator struct {
	inner repository.UserRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewUserRepoCacheDecorator(inner repository.UserRepository, cache red.RedisClient, ttl time.Duration) repository.UserRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &userRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func userTgKey(tgID int64) string { return fmt.Sprintf("user:tgid:%d", tgID) }

func (d *userRepoCacheDecorator) CreateIfAbsent(ctx context.Context, tx repository.Tx, u *model.User) (bool, error) {
	created, err := d.inner.CreateIfAbsent(ctx, tx, u)
	if err != nil {
		return false, err
	}
	if created {
		// drop any stale entry left from a previous database
		_ = d.cache.Del(ctx, userTgKey(u.TelegramID))
	}
	return created, nil
}

func (d *userRepoCacheDecorator) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	key := userTgKey(tgID)
	val, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		var user model.User
		if json.Unmarshal([]byte(val), &user) == nil {
			metrics.IncCacheRequest("user", "hit")
			return &user, nil
		}
	case !errors.Is(err, redis.Nil):
		metrics.IncCacheRequest("user", "error")
	}

	metrics.IncCacheRequest("user", "miss")
	user, err := d.inner.FindByTelegramID(ctx, tx, tgID)
	if err != nil {
		return nil, err
	}
	// only committed rows are cached
	if user != nil && tx == nil {
		if bytes, err := json.Marshal(user); err == nil {
			_ = d.cache.Set(ctx, key, bytes, d.ttl)
		}
	}
	return user, nil
}

// Pass-through methods that don't need caching
func (d *userRepoCacheDecorator) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	return d.inner.CountUsers(ctx, tx)
}

func (d *userRepoCacheDecorator) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	if limit == 0 {
		metrics.IncCacheRequest("user_list", "bypass")
	}
	return d.inner.List(ctx, tx, offset, limit)
}
