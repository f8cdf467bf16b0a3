package repository

import (
	"context"

	"telegram-lead-bot/internal/domain/model"
)

// BroadcastRepository keeps the audit trail of confirmed broadcasts.
type BroadcastRepository interface {
	Save(ctx context.Context, tx Tx, b *model.Broadcast) error
	SaveDeliveries(ctx context.Context, tx Tx, broadcastID string, ds []model.Delivery) error
	ListRecent(ctx context.Context, tx Tx, limit int) ([]*model.Broadcast, error)
}
