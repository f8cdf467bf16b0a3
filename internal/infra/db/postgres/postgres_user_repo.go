package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-lead-bot/internal/domain"
	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// CreateIfAbsent relies on the UNIQUE(telegram_id) constraint; an existing row
// is left untouched so joined_at keeps its first value.
func (r *UserRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, u *model.User) (bool, error) {
	const q = `
INSERT INTO users (telegram_id, first_name, last_name, full_name, joined_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (telegram_id) DO NOTHING
RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q, u.TelegramID, u.FirstName, u.LastName, u.FullName, u.JoinedAt)
	if err != nil {
		return false, err
	}
	if err := row.Scan(&u.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert user: %w", err)
	}
	return true, nil
}

func (r *UserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	const q = `
SELECT id, telegram_id, first_name, last_name, full_name, joined_at
  FROM users WHERE telegram_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, tgID)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := row.Scan(&u.ID, &u.TelegramID, &u.FirstName, &u.LastName, &u.FullName, &u.JoinedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns users in insertion order. limit <= 0 returns all rows.
func (r *UserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	const q = `
SELECT id, telegram_id, first_name, last_name, full_name, joined_at
  FROM users
 ORDER BY id
 LIMIT NULLIF($2, 0) OFFSET $1;`
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	rows, err := queryRows(ctx, r.pool, tx, q, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.TelegramID, &u.FirstName, &u.LastName, &u.FullName, &u.JoinedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (r *UserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM users;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
