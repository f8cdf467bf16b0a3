// File: cmd/bot/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-lead-bot/internal/application"
	"telegram-lead-bot/internal/config"
	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/domain/ports/adapter"
	tele "telegram-lead-bot/internal/infra/adapters/telegram"
	pg "telegram-lead-bot/internal/infra/db/postgres"
	"telegram-lead-bot/internal/infra/i18n"
	"telegram-lead-bot/internal/infra/logging"
	"telegram-lead-bot/internal/infra/metrics"
	red "telegram-lead-bot/internal/infra/redis"
	"telegram-lead-bot/internal/infra/scheduler"
	"telegram-lead-bot/internal/infra/web"
	"telegram-lead-bot/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode: console logs, no Telegram token needed")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("bot stopped")
	}
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()

	// ---- Repositories ----
	userRepo := pg.NewUserRepoCacheDecorator(pg.NewUserRepo(pool), redisClient, cfg.Redis.TTL)
	engagementRepo := pg.NewEngagementRepo(pool)
	broadcastRepo := pg.NewBroadcastRepo(pool)
	txManager := pg.NewTxManager(pool)
	draftRepo := red.NewDraftRepo(redisClient)

	// ---- Telegram transport ----
	var (
		api       *tgbotapi.BotAPI
		out       *tele.Messenger
		messenger adapter.Messenger
	)
	if cfg.Bot.Token != "" {
		api, err = tgbotapi.NewBotAPI(cfg.Bot.Token)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		logger.Info().Str("username", api.Self.UserName).Msg("Authorized on Telegram")
		out = tele.NewMessenger(api, cfg.Bot.ParseMode, logger)
		messenger = out
	} else {
		logger.Warn().Msg("bot.token is empty; using the no-op Telegram adapter")
		messenger = tele.NewNoopBotAdapter(logger)
	}

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, logger)
	engagementUC := usecase.NewEngagementUseCase(userUC, engagementRepo, logger)
	broadcastUC := usecase.NewBroadcastUseCase(engagementUC, broadcastRepo, txManager, messenger, cfg.Broadcast.SendInterval, logger)
	composerUC := usecase.NewComposerUseCase(draftRepo, broadcastUC, red.NewLocker(redisClient), cfg.Broadcast.LockTTL, cfg.Bot.AdminIDs, cfg.Runtime.Dev, logger)
	statsUC := usecase.NewStatsUseCase(userUC, engagementUC, broadcastUC, logger)

	facade := application.NewBotFacade(userUC, engagementUC, composerUC)

	// ---- Background jobs ----
	poolStats := scheduler.NewScheduler("db_pool_stats", 15*time.Second, pg.PoolStatsJob(pool), logger)
	poolStats.Start(ctx)
	defer poolStats.Stop()

	audience := scheduler.NewScheduler("audience_size", time.Minute, func(ctx context.Context) error {
		users, err := userUC.Count(ctx)
		if err != nil {
			return err
		}
		optIns, err := engagementUC.CountWithLabel(ctx, model.LabelOptIn)
		if err != nil {
			return err
		}
		metrics.SetAudience(users, optIns)
		return nil
	}, logger)
	audience.Start(ctx)
	defer audience.Stop()

	// ---- Dashboard ----
	dashboard, err := web.NewServer(cfg.Dashboard, statsUC, logger)
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	errc := make(chan error, 2)
	go func() {
		if err := dashboard.Start(); err != nil {
			errc <- fmt.Errorf("dashboard: %w", err)
		}
	}()

	// ---- Telegram polling ----
	if api != nil {
		translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
		if err != nil {
			return fmt.Errorf("i18n: %w", err)
		}
		if strings.ToLower(cfg.Bot.Mode) != "polling" {
			logger.Warn().Str("mode", cfg.Bot.Mode).Msg("bot.mode not implemented; falling back to polling")
		}
		bot, err := tele.NewRealTelegramBotAdapter(api, out, facade, red.NewRateLimiter(redisClient), translator, cfg, logger)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		go func() {
			if err := bot.StartPolling(ctx); err != nil && ctx.Err() == nil {
				errc <- fmt.Errorf("telegram polling: %w", err)
			}
		}()
	}

	// ---- Graceful shutdown ----
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		logger.Error().Err(err).Msg("component failed, shutting down")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := dashboard.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("dashboard shutdown")
	}
	composerUC.Wait()
	return nil
}
