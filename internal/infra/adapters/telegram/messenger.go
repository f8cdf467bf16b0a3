package telegram

import (
	"context"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-lead-bot/internal/domain/ports/adapter"
	"telegram-lead-bot/internal/infra/metrics"
)

var _ adapter.Messenger = (*Messenger)(nil)

// Messenger implements adapter.Messenger on top of the Bot API.
type Messenger struct {
	api       BotAPI
	parseMode string
	log       *zerolog.Logger
}

func NewMessenger(api BotAPI, parseMode string, logger *zerolog.Logger) *Messenger {
	if strings.EqualFold(parseMode, "plain") {
		parseMode = ""
	}
	return &Messenger{api: api, parseMode: parseMode, log: logger}
}

func (m *Messenger) SendText(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = m.parseMode
	msg.DisableWebPagePreview = false
	return m.send(ctx, "sendMessage", msg)
}

// SendButtons sends a message with inline buttons.
// - If btn.URL is set, the button opens a link
// - Else if btn.Data is set, the button sends callback data
// - Else a safe fallback uses btn.Text as callback data
func (m *Messenger) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = m.parseMode
	if kb, ok := inlineKeyboard(rows); ok {
		msg.ReplyMarkup = kb
	}
	return m.send(ctx, "sendMessage", msg)
}

func (m *Messenger) SendPhoto(ctx context.Context, chatID int64, photo, caption string, rows [][]adapter.InlineButton) error {
	msg := tgbotapi.NewPhoto(chatID, inputFile(photo))
	msg.Caption = caption
	msg.ParseMode = m.parseMode
	if kb, ok := inlineKeyboard(rows); ok {
		msg.ReplyMarkup = kb
	}
	return m.send(ctx, "sendPhoto", msg)
}

func (m *Messenger) SendVideo(ctx context.Context, chatID int64, video, caption string, rows [][]adapter.InlineButton) error {
	msg := tgbotapi.NewVideo(chatID, inputFile(video))
	msg.Caption = caption
	msg.ParseMode = m.parseMode
	if kb, ok := inlineKeyboard(rows); ok {
		msg.ReplyMarkup = kb
	}
	return m.send(ctx, "sendVideo", msg)
}

// SendVideoNote sends a round video. Video notes carry no caption.
func (m *Messenger) SendVideoNote(ctx context.Context, chatID int64, videoNote string, rows [][]adapter.InlineButton) error {
	msg := tgbotapi.NewVideoNote(chatID, 0, inputFile(videoNote))
	if kb, ok := inlineKeyboard(rows); ok {
		msg.ReplyMarkup = kb
	}
	return m.send(ctx, "sendVideoNote", msg)
}

func (m *Messenger) send(ctx context.Context, method string, c tgbotapi.Chattable) error {
	// Support early cancellation
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if _, err := m.api.Send(c); err != nil {
		metrics.IncSendError(method)
		if m.log != nil {
			m.log.Debug().Err(err).Str("method", method).Msg("telegram send failed")
		}
		return err
	}
	return nil
}

// inputFile picks how Telegram should fetch ref: URL, local file, or file ID.
func inputFile(ref string) tgbotapi.RequestFileData {
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return tgbotapi.FileURL(ref)
	}
	if fi, err := os.Stat(ref); err == nil && !fi.IsDir() {
		return tgbotapi.FilePath(ref)
	}
	return tgbotapi.FileID(ref)
}

func inlineKeyboard(rows [][]adapter.InlineButton) (tgbotapi.InlineKeyboardMarkup, bool) {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			var kb tgbotapi.InlineKeyboardButton
			switch {
			case btn.URL != "":
				kb = tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL)
			case btn.Data != "":
				kb = tgbotapi.NewInlineKeyboardButtonData(label, btn.Data)
			default:
				kb = tgbotapi.NewInlineKeyboardButtonData(label, label)
			}
			r = append(r, kb)
		}
		kbRows = append(kbRows, r)
	}
	if len(kbRows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...), true
}
