package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/infra/logging"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// DashboardStats is everything the read dashboard shows.
type DashboardStats struct {
	TotalUsers       int                `json:"total_users"`
	OptInCount       int                `json:"opt_in_count"`
	Users            []*model.User      `json:"users"`
	RecentBroadcasts []*model.Broadcast `json:"recent_broadcasts"`
	GeneratedAt      time.Time          `json:"generated_at"`
}

type StatsUseCase interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
}

type statsUC struct {
	users       UserUseCase
	engagements EngagementUseCase
	broadcasts  BroadcastUseCase

	log *zerolog.Logger
}

func NewStatsUseCase(users UserUseCase, engagements EngagementUseCase, broadcasts BroadcastUseCase, logger *zerolog.Logger) *statsUC {
	return &statsUC{users: users, engagements: engagements, broadcasts: broadcasts, log: logger}
}

func (s *statsUC) Dashboard(ctx context.Context) (*DashboardStats, error) {
	defer logging.TraceDuration(s.log, "StatsUC.Dashboard")()

	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	optIns, err := s.engagements.CountWithLabel(ctx, model.LabelOptIn)
	if err != nil {
		return nil, err
	}
	out := &DashboardStats{
		TotalUsers:  len(users),
		OptInCount:  optIns,
		Users:       users,
		GeneratedAt: time.Now().UTC(),
	}
	if s.broadcasts != nil {
		recent, err := s.broadcasts.Recent(ctx, 10)
		if err != nil {
			s.log.Warn().Err(err).Msg("Failed to load recent broadcasts")
		} else {
			out.RecentBroadcasts = recent
		}
	}
	return out, nil
}
