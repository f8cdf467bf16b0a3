package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-lead-bot/internal/domain"
	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/domain/ports/repository"
)

var _ repository.BroadcastRepository = (*BroadcastRepo)(nil)

type BroadcastRepo struct {
	pool *pgxpool.Pool
}

func NewBroadcastRepo(pool *pgxpool.Pool) *BroadcastRepo {
	return &BroadcastRepo{pool: pool}
}

func (r *BroadcastRepo) Save(ctx context.Context, tx repository.Tx, b *model.Broadcast) error {
	const q = `
INSERT INTO broadcasts (id, admin_telegram_id, kind, media_ref, caption,
                        recipients, delivered, failed, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
  recipients  = EXCLUDED.recipients,
  delivered   = EXCLUDED.delivered,
  failed      = EXCLUDED.failed,
  finished_at = EXCLUDED.finished_at;`
	var finished interface{}
	if !b.FinishedAt.IsZero() {
		finished = b.FinishedAt
	}
	_, err := execSQL(ctx, r.pool, tx, q,
		b.ID, b.AdminTelegramID, string(b.Kind), b.MediaRef, b.Caption,
		b.Recipients, b.Delivered, b.Failed, b.StartedAt, finished)
	if err != nil {
		return fmt.Errorf("save broadcast: %w", err)
	}
	return nil
}

// SaveDeliveries writes all per-recipient outcomes in one round trip.
func (r *BroadcastRepo) SaveDeliveries(ctx context.Context, tx repository.Tx, broadcastID string, ds []model.Delivery) error {
	if len(ds) == 0 {
		return nil
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO broadcast_deliveries (broadcast_id, telegram_id, success, error, sent_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (broadcast_id, telegram_id) DO NOTHING;`
	batch := &pgx.Batch{}
	for _, d := range ds {
		batch.Queue(q, broadcastID, d.TelegramID, d.Success, d.Error, d.SentAt)
	}
	br := ex.SendBatch(ctx, batch)
	defer br.Close()
	for range ds {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("save delivery: %w", err)
		}
	}
	return nil
}

// ListRecent returns broadcast headers, newest first, without deliveries.
func (r *BroadcastRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.Broadcast, error) {
	const q = `
SELECT id, admin_telegram_id, kind, media_ref, caption,
       recipients, delivered, failed, started_at, COALESCE(finished_at, started_at)
  FROM broadcasts
 ORDER BY started_at DESC
 LIMIT NULLIF($1, 0);`
	if limit < 0 {
		limit = 0
	}
	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list broadcasts: %w", err)
	}
	defer rows.Close()

	out := make([]*model.Broadcast, 0)
	for rows.Next() {
		var (
			b    model.Broadcast
			kind string
		)
		if err := rows.Scan(&b.ID, &b.AdminTelegramID, &kind, &b.MediaRef, &b.Caption,
			&b.Recipients, &b.Delivered, &b.Failed, &b.StartedAt, &b.FinishedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		b.Kind = model.MediaKind(kind)
		out = append(out, &b)
	}
	return out, rows.Err()
}
