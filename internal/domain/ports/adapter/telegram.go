package adapter

import "context"

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// Messenger is the outbound side of the chat transport. Every call targets a
// chat ID and either succeeds or returns the delivery error.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendButtons(ctx context.Context, chatID int64, text string, rows [][]InlineButton) error
	SendPhoto(ctx context.Context, chatID int64, photo, caption string, rows [][]InlineButton) error
	SendVideo(ctx context.Context, chatID int64, video, caption string, rows [][]InlineButton) error
	SendVideoNote(ctx context.Context, chatID int64, videoNote string, rows [][]InlineButton) error
}
