package repository

import (
	"context"

	"telegram-lead-bot/internal/domain/model"
)

// Step is the position of a conversation in the post composition flow.
type Step string

const (
	StepIdle                 Step = "idle"
	StepAwaitingMedia        Step = "awaiting_media"
	StepAwaitingCaption      Step = "awaiting_caption"
	StepAwaitingConfirmation Step = "awaiting_confirmation"
)

// Draft is the per-conversation composition state.
type Draft struct {
	Step Step               `json:"step"`
	Post model.ComposedPost `json:"post"`
}

// DraftRepository stores drafts keyed by conversation (chat) identity.
// GetDraft returns an idle draft when none is stored.
type DraftRepository interface {
	SetDraft(ctx context.Context, chatID int64, d *Draft) error
	GetDraft(ctx context.Context, chatID int64) (*Draft, error)
	ClearDraft(ctx context.Context, chatID int64) error
}
