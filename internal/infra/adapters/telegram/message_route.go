package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-lead-bot/internal/application"
	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/domain/ports/adapter"
	"telegram-lead-bot/internal/infra/logging"
	"telegram-lead-bot/internal/usecase"
)

// composeInput extracts the media or text the composer may consume.
// For photos Telegram lists every size; the last one is the largest.
func composeInput(msg *tgbotapi.Message) application.ComposeInput {
	in := application.ComposeInput{Kind: model.MediaNone}
	switch {
	case len(msg.Photo) > 0:
		in.Kind = model.MediaPhoto
		in.Ref = msg.Photo[len(msg.Photo)-1].FileID
	case msg.Video != nil:
		in.Kind = model.MediaVideo
		in.Ref = msg.Video.FileID
	case msg.VideoNote != nil:
		in.Kind = model.MediaVideoNote
		in.Ref = msg.VideoNote.FileID
	case msg.Text != "":
		in.Text = msg.Text
		in.HasText = true
	}
	return in
}

// handleComposeMessage feeds admin messages to the draft of their chat.
// Other senders and chats without a draft get no reply.
func (r *RealTelegramBotAdapter) handleComposeMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !r.facade.IsAdmin(msg.From.ID) {
		return nil
	}
	res, err := r.facade.HandleComposeMessage(ctx, msg.Chat.ID, composeInput(msg))
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("compose: update draft")
		return r.out.SendText(ctx, msg.Chat.ID, r.translator.T("error.generic"))
	}

	switch res.Outcome {
	case application.OutcomeAskCaption, application.OutcomeRepromptCaption:
		return r.out.SendText(ctx, msg.Chat.ID, r.translator.T("post.ask_caption"))
	case application.OutcomeRepromptMedia:
		return r.out.SendText(ctx, msg.Chat.ID, r.translator.T("post.ask_media"))
	case application.OutcomePreview:
		return r.sendPreview(ctx, msg.Chat.ID, res.Post)
	}
	return nil
}

// sendPreview shows the admin exactly what subscribers will get, plus the confirm button.
func (r *RealTelegramBotAdapter) sendPreview(ctx context.Context, chatID int64, post model.ComposedPost) error {
	rows := [][]adapter.InlineButton{
		{{Text: r.translator.T("post.confirm_button"), Data: model.CallbackApprovePost}},
	}
	if err := usecase.Deliver(ctx, r.out, chatID, usecase.RenderPost(post), rows); err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("compose: preview failed")
		if cerr := r.facade.HandleCancelPost(ctx, chatID); cerr != nil {
			logging.With(ctx, r.log).Error().Err(cerr).Msg("compose: clear draft")
		}
		return r.out.SendText(ctx, chatID, r.translator.T("post.preview_failed"))
	}
	return nil
}
