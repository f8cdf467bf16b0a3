package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/domain/ports/repository"
	"telegram-lead-bot/internal/infra/logging"
)

var _ EngagementUseCase = (*engagementUC)(nil)

type EngagementUseCase interface {
	// RecordIfAbsent stores at most one record per (user, label).
	RecordIfAbsent(ctx context.Context, user *model.User, label string) (bool, error)
	// OptIn registers the clicking user when needed and records the opt-in label.
	OptIn(ctx context.Context, tgID int64, firstName, lastName string) (bool, error)
	UsersWithLabel(ctx context.Context, label string) ([]int64, error)
	CountWithLabel(ctx context.Context, label string) (int, error)
}

type engagementUC struct {
	users UserUseCase
	repo  repository.EngagementRepository
	log   *zerolog.Logger
}

func NewEngagementUseCase(users UserUseCase, repo repository.EngagementRepository, logger *zerolog.Logger) *engagementUC {
	return &engagementUC{users: users, repo: repo, log: logger}
}

func (e *engagementUC) RecordIfAbsent(ctx context.Context, user *model.User, label string) (bool, error) {
	defer logging.TraceDuration(e.log, "EngagementUC.RecordIfAbsent")()
	if user == nil {
		return false, fmt.Errorf("record engagement: nil user")
	}
	rec, err := model.NewEngagementRecord(user.ID, label)
	if err != nil {
		return false, err
	}
	return e.repo.SaveIfAbsent(ctx, repository.NoTX, rec)
}

func (e *engagementUC) OptIn(ctx context.Context, tgID int64, firstName, lastName string) (bool, error) {
	defer logging.TraceDuration(e.log, "EngagementUC.OptIn")()

	user, err := e.users.GetByTelegramID(ctx, tgID)
	if isNotFound(err) {
		user, _, err = e.users.RegisterIfAbsent(ctx, tgID, firstName, lastName)
	}
	if err != nil {
		return false, err
	}
	return e.RecordIfAbsent(ctx, user, model.LabelOptIn)
}

func (e *engagementUC) UsersWithLabel(ctx context.Context, label string) ([]int64, error) {
	defer logging.TraceDuration(e.log, "EngagementUC.UsersWithLabel")()
	return e.repo.TelegramIDsWithLabel(ctx, repository.NoTX, label)
}

func (e *engagementUC) CountWithLabel(ctx context.Context, label string) (int, error) {
	return e.repo.CountWithLabel(ctx, repository.NoTX, label)
}
