package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-lead-bot/internal/domain"
	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/domain/ports/adapter"
	"telegram-lead-bot/internal/infra/logging"
	"telegram-lead-bot/internal/infra/metrics"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		model.CommandStart: r.handleStartCommand,
		model.CommandHelp:  r.handleHelpCommand,

		// These handlers are wrapped in our adminOnly middleware.
		model.CommandPost:   r.adminOnly(r.handlePostCommand),
		model.CommandCancel: r.adminOnly(r.handleCancelCommand),
	}
}

func (r *RealTelegramBotAdapter) adminOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		if !r.facade.IsAdmin(message.From.ID) {
			metrics.IncAdminCommand("/"+message.Command(), "unauthorized")
			return r.out.SendText(ctx, message.Chat.ID, r.translator.T("post.not_admin"))
		}
		metrics.IncAdminCommand("/"+message.Command(), "authorized")
		return next(ctx, message)
	}
}

// handleStartCommand registers the sender and shows the welcome with the opt-in button.
func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	first, last := fullName(message.From)
	created, err := r.facade.HandleStart(ctx, message.From.ID, first, last)
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("start: register user")
		return r.out.SendText(ctx, message.Chat.ID, r.translator.T("error.generic"))
	}
	if created {
		metrics.IncUsersRegistered()
	}
	return r.sendWelcome(ctx, message.Chat.ID)
}

func (r *RealTelegramBotAdapter) sendWelcome(ctx context.Context, chatID int64) error {
	rows := [][]adapter.InlineButton{
		{{Text: r.translator.T("start.opt_in_button"), Data: model.CallbackOptIn}},
	}
	text := r.translator.T("start.welcome")
	if r.welcome.Photo != "" {
		err := r.out.SendPhoto(ctx, chatID, r.welcome.Photo, text, rows)
		if err == nil {
			return nil
		}
		logging.With(ctx, r.log).Warn().Err(err).Msg("welcome photo failed, falling back to text")
	}
	return r.out.SendButtons(ctx, chatID, text, rows)
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	if r.facade.IsAdmin(message.From.ID) {
		return r.out.SendText(ctx, message.Chat.ID, r.translator.T("help.admin"))
	}
	return r.out.SendText(ctx, message.Chat.ID, r.translator.T("help.user"))
}

// handlePostCommand starts a fresh draft for the chat, dropping any previous one.
func (r *RealTelegramBotAdapter) handlePostCommand(ctx context.Context, message *tgbotapi.Message) error {
	if err := r.facade.HandleBeginPost(ctx, message.Chat.ID, message.From.ID); err != nil {
		if errors.Is(err, domain.ErrNotAdmin) {
			return r.out.SendText(ctx, message.Chat.ID, r.translator.T("post.not_admin"))
		}
		logging.With(ctx, r.log).Error().Err(err).Msg("post: begin draft")
		return r.out.SendText(ctx, message.Chat.ID, r.translator.T("error.generic"))
	}
	return r.out.SendText(ctx, message.Chat.ID, r.translator.T("post.ask_media"))
}

func (r *RealTelegramBotAdapter) handleCancelCommand(ctx context.Context, message *tgbotapi.Message) error {
	if err := r.facade.HandleCancelPost(ctx, message.Chat.ID); err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("cancel: clear draft")
		return r.out.SendText(ctx, message.Chat.ID, r.translator.T("error.generic"))
	}
	return r.out.SendText(ctx, message.Chat.ID, r.translator.T("post.cancelled"))
}
