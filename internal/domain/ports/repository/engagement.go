package repository

import (
	"context"

	"telegram-lead-bot/internal/domain/model"
)

// EngagementRepository stores button clicks, one row per (user, label).
type EngagementRepository interface {
	// SaveIfAbsent reports whether a new record was created.
	SaveIfAbsent(ctx context.Context, tx Tx, rec *model.EngagementRecord) (bool, error)
	// TelegramIDsWithLabel returns distinct Telegram IDs in first-click order.
	TelegramIDsWithLabel(ctx context.Context, tx Tx, label string) ([]int64, error)
	CountWithLabel(ctx context.Context, tx Tx, label string) (int, error)
}
