package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-lead-bot/internal/application"
	"telegram-lead-bot/internal/config"
	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/infra/i18n"
	"telegram-lead-bot/internal/infra/logging"
	"telegram-lead-bot/internal/infra/metrics"
	red "telegram-lead-bot/internal/infra/redis"
	"telegram-lead-bot/internal/infra/worker"
	"telegram-lead-bot/internal/usecase"
)

// BotAPI is the subset of *tgbotapi.BotAPI the adapter uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var _ BotAPI = (*tgbotapi.BotAPI)(nil)

// Facade is what the adapter needs from the application layer.
type Facade interface {
	IsAdmin(tgID int64) bool
	HandleStart(ctx context.Context, tgID int64, firstName, lastName string) (bool, error)
	HandleOptIn(ctx context.Context, tgID int64, firstName, lastName string) (bool, error)
	HandleBeginPost(ctx context.Context, chatID, senderID int64) error
	HandleCancelPost(ctx context.Context, chatID int64) error
	HandleComposeMessage(ctx context.Context, chatID int64, in application.ComposeInput) (application.ComposeResult, error)
	HandleConfirmPost(ctx context.Context, chatID, adminID int64, done usecase.BroadcastDone) error
}

var _ Facade = (*application.BotFacade)(nil)

// Limiter is satisfied by the redis rate limiter.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RealTelegramBotAdapter polls updates and delegates to the facade.
type RealTelegramBotAdapter struct {
	api         BotAPI
	out         *Messenger
	facade      Facade
	rateLimiter Limiter
	translator  *i18n.Translator
	welcome     config.WelcomeConfig
	limits      config.RateLimitConfig
	log         *zerolog.Logger

	updateWorkers int
	mu            sync.Mutex
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(
	api BotAPI,
	out *Messenger,
	facade Facade,
	rateLimiter Limiter,
	translator *i18n.Translator,
	cfg *config.Config,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if api == nil || out == nil {
		return nil, errors.New("bot api is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	if translator == nil {
		return nil, errors.New("translator is nil")
	}
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	workers := cfg.Bot.Workers
	if workers <= 0 {
		workers = 4
	}
	return &RealTelegramBotAdapter{
		api:           api,
		out:           out,
		facade:        facade,
		rateLimiter:   rateLimiter,
		translator:    translator,
		welcome:       cfg.Welcome,
		limits:        cfg.RateLimit,
		log:           logger,
		updateWorkers: workers,
	}, nil
}

// StartPolling blocks until ctx is cancelled or StopPolling is called.
// Updates of one chat always land on the same worker so they are handled in order.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.api.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.mu.Lock()
	r.cancelPolling = cancel
	r.mu.Unlock()
	defer r.api.StopReceivingUpdates()

	pool := worker.NewPool(r.updateWorkers, 64, r.log)
	pool.Start(ctx)
	defer pool.Stop()

	r.log.Info().Int("workers", pool.Size()).Msg("Telegram polling started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				cancel()
				return ctx.Err()
			}
			err := pool.Submit(ctx, updateChatID(up), func(ctx context.Context) error {
				return r.handleUpdate(ctx, up)
			})
			if err != nil {
				return ctx.Err()
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func updateChatID(up tgbotapi.Update) int64 {
	switch {
	case up.Message != nil && up.Message.Chat != nil:
		return up.Message.Chat.ID
	case up.CallbackQuery != nil && up.CallbackQuery.Message != nil && up.CallbackQuery.Message.Chat != nil:
		return up.CallbackQuery.Message.Chat.ID
	case up.CallbackQuery != nil && up.CallbackQuery.From != nil:
		return up.CallbackQuery.From.ID
	}
	return 0
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	if chatID := updateChatID(update); chatID != 0 {
		ctx = logging.WithChatID(ctx, chatID)
	}

	// ----- Inline button callbacks -----
	if update.CallbackQuery != nil {
		if update.CallbackQuery.From != nil {
			ctx = logging.WithTgID(ctx, update.CallbackQuery.From.ID)
		}
		metrics.IncTelegramUpdate("callback", callbackName(update.CallbackQuery.Data))
		return r.handleQuery(ctx, update.CallbackQuery)
	}

	// ----- Regular messages -----
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return nil
	}
	ctx = logging.WithTgID(ctx, msg.From.ID)

	if msg.IsCommand() {
		command := strings.ToLower(msg.Command())
		metrics.IncTelegramUpdate("command", command)
		if !r.allow(ctx, msg.From.ID, "/"+command, r.limits.Commands) {
			return r.out.SendText(ctx, msg.Chat.ID, r.translator.T("error.rate_limited"))
		}
		if fn, ok := r.commandRoutes()[command]; ok {
			return fn(ctx, msg)
		}
		return nil
	}

	metrics.IncTelegramUpdate("message", messageKind(msg))
	return r.handleComposeMessage(ctx, msg)
}

// allow reports whether the user may proceed. Limiter failures let the update through.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, tgID int64, action string, limit int) bool {
	if r.rateLimiter == nil || limit <= 0 {
		return true
	}
	ok, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(tgID, action), limit, r.limits.Window)
	if err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("rate limit check failed")
		return true
	}
	if !ok {
		metrics.IncRateLimitTriggered()
	}
	return ok
}

func callbackName(data string) string {
	switch data {
	case model.CallbackOptIn, model.CallbackApprovePost:
		return data
	}
	return "unknown"
}

func messageKind(msg *tgbotapi.Message) string {
	switch {
	case len(msg.Photo) > 0:
		return string(model.MediaPhoto)
	case msg.Video != nil:
		return string(model.MediaVideo)
	case msg.VideoNote != nil:
		return string(model.MediaVideoNote)
	case msg.Text != "":
		return "text"
	}
	return "other"
}

func fullName(u *tgbotapi.User) (string, string) {
	if u == nil {
		return "", ""
	}
	return u.FirstName, u.LastName
}
