package usecase

import (
	"context"
	"fmt"
	"strings"

	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/domain/ports/adapter"
)

// Outbound is one transport message. Kind MediaNone means plain text.
type Outbound struct {
	Kind model.MediaKind
	Ref  string
	Text string
}

// RenderPost turns a composed post into the messages every viewer receives.
// Video notes cannot carry captions, so a non-blank caption follows as text.
func RenderPost(p model.ComposedPost) []Outbound {
	switch p.Kind {
	case model.MediaPhoto, model.MediaVideo:
		return []Outbound{{Kind: p.Kind, Ref: p.MediaRef, Text: p.Caption}}
	case model.MediaVideoNote:
		out := []Outbound{{Kind: model.MediaVideoNote, Ref: p.MediaRef}}
		if strings.TrimSpace(p.Caption) != "" {
			out = append(out, Outbound{Kind: model.MediaNone, Text: p.Caption})
		}
		return out
	}
	return nil
}

// Deliver sends units in order and stops at the first failure.
// rows, when given, are attached to the last unit.
func Deliver(ctx context.Context, m adapter.Messenger, chatID int64, units []Outbound, rows [][]adapter.InlineButton) error {
	if len(units) == 0 {
		return fmt.Errorf("nothing to deliver")
	}
	for i, u := range units {
		var kb [][]adapter.InlineButton
		if i == len(units)-1 {
			kb = rows
		}
		var err error
		switch u.Kind {
		case model.MediaPhoto:
			err = m.SendPhoto(ctx, chatID, u.Ref, u.Text, kb)
		case model.MediaVideo:
			err = m.SendVideo(ctx, chatID, u.Ref, u.Text, kb)
		case model.MediaVideoNote:
			err = m.SendVideoNote(ctx, chatID, u.Ref, kb)
		default:
			if len(kb) > 0 {
				err = m.SendButtons(ctx, chatID, u.Text, kb)
			} else {
				err = m.SendText(ctx, chatID, u.Text)
			}
		}
		if err != nil {
			return fmt.Errorf("send %s: %w", u.Kind, err)
		}
	}
	return nil
}
