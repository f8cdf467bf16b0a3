//go:build !integration

package web

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"telegram-lead-bot/internal/usecase"
)

type mockStatsUC struct {
	DashboardFunc func(ctx context.Context) (*usecase.DashboardStats, error)
	calls         int
}

func (m *mockStatsUC) Dashboard(ctx context.Context) (*usecase.DashboardStats, error) {
	m.calls++
	return m.DashboardFunc(ctx)
}

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}
