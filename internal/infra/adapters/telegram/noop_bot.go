package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-lead-bot/internal/domain/ports/adapter"
)

var _ adapter.Messenger = (*NoopBotAdapter)(nil)

// NoopBotAdapter implements adapter.Messenger for local/dev runs without a
// token. It logs messages instead of sending real Telegram messages.
type NoopBotAdapter struct {
	log *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	return &NoopBotAdapter{log: logger}
}

func (b *NoopBotAdapter) SendText(ctx context.Context, chatID int64, text string) error {
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Msg("[noop-telegram] sendMessage")
	return ctx.Err()
}

func (b *NoopBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Interface("buttons", rows).Msg("[noop-telegram] sendMessage")
	return ctx.Err()
}

func (b *NoopBotAdapter) SendPhoto(ctx context.Context, chatID int64, photo, caption string, rows [][]adapter.InlineButton) error {
	b.log.Info().Int64("chat_id", chatID).Str("photo", photo).Str("caption", caption).Msg("[noop-telegram] sendPhoto")
	return ctx.Err()
}

func (b *NoopBotAdapter) SendVideo(ctx context.Context, chatID int64, video, caption string, rows [][]adapter.InlineButton) error {
	b.log.Info().Int64("chat_id", chatID).Str("video", video).Str("caption", caption).Msg("[noop-telegram] sendVideo")
	return ctx.Err()
}

func (b *NoopBotAdapter) SendVideoNote(ctx context.Context, chatID int64, videoNote string, rows [][]adapter.InlineButton) error {
	b.log.Info().Int64("chat_id", chatID).Str("video_note", videoNote).Msg("[noop-telegram] sendVideoNote")
	return ctx.Err()
}
