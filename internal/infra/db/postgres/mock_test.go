//go:build !integration

package postgres

import (
	"context"
	"time"

	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/domain/ports/repository"
	red "telegram-lead-bot/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerUserRepo mocks the database repository that the User decorator wraps.
type mockInnerUserRepo struct {
	CreateIfAbsentFunc   func(ctx context.Context, tx repository.Tx, u *model.User) (bool, error)
	FindByTelegramIDFunc func(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error)
	CountUsersFunc       func(ctx context.Context, tx repository.Tx) (int, error)
	ListFunc             func(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error)
}

func (m *mockInnerUserRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, u *model.User) (bool, error) {
	return m.CreateIfAbsentFunc(ctx, tx, u)
}
func (m *mockInnerUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	return m.FindByTelegramIDFunc(ctx, tx, tgID)
}
func (m *mockInnerUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	return m.CountUsersFunc(ctx, tx)
}
func (m *mockInnerUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	return m.ListFunc(ctx, tx, offset, limit)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return false, nil
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) DelIfEquals(ctx context.Context, key, value string) (bool, error) {
	return false, nil
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
