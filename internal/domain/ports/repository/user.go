package repository

import (
	"context"

	"telegram-lead-bot/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	// CreateIfAbsent inserts u unless a row with the same TelegramID exists.
	// It reports whether a row was inserted; existing rows are never modified.
	CreateIfAbsent(ctx context.Context, tx Tx, u *model.User) (bool, error)
	FindByTelegramID(ctx context.Context, tx Tx, tgID int64) (*model.User, error)
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.User, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
}
