package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-lead-bot/internal/domain"
	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/domain/ports/repository"
	"telegram-lead-bot/internal/infra/logging"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase is the identity store seen by the bot and the dashboard.
type UserUseCase interface {
	// RegisterIfAbsent returns the stored user and whether this call created it.
	RegisterIfAbsent(ctx context.Context, tgID int64, firstName, lastName string) (*model.User, bool, error)
	GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error)
	ListAll(ctx context.Context) ([]*model.User, error)
	Count(ctx context.Context) (int, error)
}

type userUC struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, logger *zerolog.Logger) *userUC {
	return &userUC{
		users: users,
		log:   logger,
	}
}

func (u *userUC) RegisterIfAbsent(ctx context.Context, tgID int64, firstName, lastName string) (*model.User, bool, error) {
	defer logging.TraceDuration(u.log, "UserUC.RegisterIfAbsent")()

	nu, err := model.NewUser(tgID, firstName, lastName)
	if err != nil {
		return nil, false, err
	}
	created, err := u.users.CreateIfAbsent(ctx, repository.NoTX, nu)
	if err != nil {
		return nil, false, fmt.Errorf("register user %d: %w", tgID, err)
	}
	if created {
		return nu, true, nil
	}

	existing, err := u.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err != nil {
		return nil, false, fmt.Errorf("load user %d: %w", tgID, err)
	}
	return existing, false, nil
}

func (u *userUC) GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.GetByTelegramID")()
	return u.users.FindByTelegramID(ctx, repository.NoTX, tgID)
}

func (u *userUC) ListAll(ctx context.Context) ([]*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.ListAll")()
	return u.users.List(ctx, repository.NoTX, 0, 0)
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.Count")()
	return u.users.CountUsers(ctx, repository.NoTX)
}

func isNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }
