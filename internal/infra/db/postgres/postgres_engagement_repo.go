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

var _ repository.EngagementRepository = (*EngagementRepo)(nil)

type EngagementRepo struct {
	pool *pgxpool.Pool
}

func NewEngagementRepo(pool *pgxpool.Pool) *EngagementRepo {
	return &EngagementRepo{pool: pool}
}

// SaveIfAbsent lets the UNIQUE (user_id, label) constraint settle concurrent
// double-clicks: the loser of the race inserts nothing and reports false.
func (r *EngagementRepo) SaveIfAbsent(ctx context.Context, tx repository.Tx, rec *model.EngagementRecord) (bool, error) {
	const q = `
INSERT INTO engagements (user_id, label, clicked_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, label) DO NOTHING
RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q, rec.UserID, rec.Label, rec.ClickedAt)
	if err != nil {
		return false, err
	}
	if err := row.Scan(&rec.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert engagement: %w", err)
	}
	return true, nil
}

func (r *EngagementRepo) TelegramIDsWithLabel(ctx context.Context, tx repository.Tx, label string) ([]int64, error) {
	const q = `
SELECT u.telegram_id
  FROM engagements e
  JOIN users u ON u.id = e.user_id
 WHERE e.label = $1
 GROUP BY u.telegram_id
 ORDER BY MIN(e.id);`
	rows, err := queryRows(ctx, r.pool, tx, q, label)
	if err != nil {
		return nil, fmt.Errorf("list engaged users: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *EngagementRepo) CountWithLabel(ctx context.Context, tx repository.Tx, label string) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM engagements WHERE label = $1;`, label)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count engagements: %w", err)
	}
	return n, nil
}
