package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-lead-bot/internal/domain"
	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/infra/logging"
	"telegram-lead-bot/internal/infra/metrics"
)

type cbHandler func(ctx context.Context, query *tgbotapi.CallbackQuery, chatID int64) error

func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		model.CallbackOptIn:       r.optInCBRoute,
		model.CallbackApprovePost: r.approvePostCBRoute,
	}
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// Stop telegram spinner when we return
	defer func() { _, _ = r.api.Request(tgbotapi.NewCallback(query.ID, "")) }()

	var chatID int64
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	} else {
		chatID = query.From.ID
	}
	if chatID == 0 {
		return nil
	}

	data := strings.TrimSpace(query.Data)
	if !r.allow(ctx, query.From.ID, "cb:"+data, r.limits.Callbacks) {
		return r.out.SendText(ctx, chatID, r.translator.T("error.rate_limited"))
	}

	if fn, ok := r.cbRoutes()[data]; ok {
		return fn(ctx, query, chatID)
	}
	return fmt.Errorf("unknown callback data %q", data)
}

// optInCBRoute records the opt-in once and replays the follow-up media on every press.
func (r *RealTelegramBotAdapter) optInCBRoute(ctx context.Context, query *tgbotapi.CallbackQuery, chatID int64) error {
	first, last := fullName(query.From)
	created, err := r.facade.HandleOptIn(ctx, query.From.ID, first, last)
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("opt-in: record engagement")
		return r.out.SendText(ctx, chatID, r.translator.T("error.generic"))
	}
	metrics.IncEngagementClick(model.LabelOptIn, created)

	sent := false
	if r.welcome.VideoNote != "" {
		if err := r.out.SendVideoNote(ctx, chatID, r.welcome.VideoNote, nil); err != nil {
			logging.With(ctx, r.log).Warn().Err(err).Msg("opt-in: video note failed")
		} else {
			sent = true
		}
	}
	if r.welcome.ChannelURL != "" {
		if err := r.out.SendText(ctx, chatID, r.welcome.ChannelURL); err != nil {
			return err
		}
		sent = true
	}
	if !sent {
		return r.out.SendText(ctx, chatID, r.translator.T("optin.recorded"))
	}
	return nil
}

// approvePostCBRoute returns as soon as the broadcast has started so the
// update lane stays free; the report is sent from the broadcast goroutine.
func (r *RealTelegramBotAdapter) approvePostCBRoute(ctx context.Context, query *tgbotapi.CallbackQuery, chatID int64) error {
	err := r.facade.HandleConfirmPost(ctx, chatID, query.From.ID, func(ctx context.Context, rep *model.DeliveryReport, err error) {
		if serr := r.sendReport(ctx, chatID, rep, err); serr != nil {
			logging.With(ctx, r.log).Warn().Err(serr).Msg("approve: report not sent")
		}
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotAdmin):
		return r.out.SendText(ctx, chatID, r.translator.T("post.not_admin"))
	case errors.Is(err, domain.ErrNothingToConfirm):
		return r.out.SendText(ctx, chatID, r.translator.T("post.nothing_to_confirm"))
	case errors.Is(err, domain.ErrBroadcastInProgress):
		return r.out.SendText(ctx, chatID, r.translator.T("post.in_progress"))
	}
	return err
}

func (r *RealTelegramBotAdapter) sendReport(ctx context.Context, chatID int64, rep *model.DeliveryReport, err error) error {
	if rep == nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("approve: broadcast failed")
		return r.out.SendText(ctx, chatID, r.translator.T("error.generic"))
	}
	if err != nil {
		// partial run, the report still tells the admin how far it got
		logging.With(ctx, r.log).Warn().Err(err).Msg("approve: broadcast interrupted")
	}
	if err := r.out.SendText(ctx, chatID, r.translator.T("post.sent")); err != nil {
		return err
	}
	return r.out.SendText(ctx, chatID, r.translator.T("post.report", rep.Delivered, rep.Failed, rep.Recipients))
}
