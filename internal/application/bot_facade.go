package application

import (
	"context"
	"errors"
	"fmt"

	"telegram-lead-bot/internal/domain"
	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/domain/ports/repository"
	"telegram-lead-bot/internal/usecase"
)

// BotFacade composes usecases into high-level bot commands so the Telegram
// adapter only translates updates and renders replies.
type BotFacade struct {
	UserUC       usecase.UserUseCase
	EngagementUC usecase.EngagementUseCase
	ComposerUC   usecase.ComposerUseCase
}

func NewBotFacade(
	userUC usecase.UserUseCase,
	engagementUC usecase.EngagementUseCase,
	composerUC usecase.ComposerUseCase,
) *BotFacade {
	return &BotFacade{
		UserUC:       userUC,
		EngagementUC: engagementUC,
		ComposerUC:   composerUC,
	}
}

// ComposeInput is the part of an inbound message the composer cares about.
type ComposeInput struct {
	Kind    model.MediaKind
	Ref     string
	Text    string
	HasText bool
}

type ComposeOutcome int

const (
	// OutcomeIgnored means the chat is not composing; nothing to say.
	OutcomeIgnored ComposeOutcome = iota
	OutcomeAskCaption
	OutcomePreview
	OutcomeRepromptMedia
	OutcomeRepromptCaption
)

type ComposeResult struct {
	Outcome ComposeOutcome
	Post    model.ComposedPost
}

func (b *BotFacade) IsAdmin(tgID int64) bool {
	return b.ComposerUC != nil && b.ComposerUC.IsAdmin(tgID)
}

// HandleStart registers the user on first contact and reports whether it was new.
func (b *BotFacade) HandleStart(ctx context.Context, tgID int64, firstName, lastName string) (bool, error) {
	if b.UserUC == nil {
		return false, fmt.Errorf("user usecase not available")
	}
	_, created, err := b.UserUC.RegisterIfAbsent(ctx, tgID, firstName, lastName)
	if err != nil {
		return false, fmt.Errorf("register user: %w", err)
	}
	return created, nil
}

func (b *BotFacade) HandleOptIn(ctx context.Context, tgID int64, firstName, lastName string) (bool, error) {
	if b.EngagementUC == nil {
		return false, fmt.Errorf("engagement usecase not available")
	}
	return b.EngagementUC.OptIn(ctx, tgID, firstName, lastName)
}

func (b *BotFacade) HandleBeginPost(ctx context.Context, chatID, senderID int64) error {
	return b.ComposerUC.Begin(ctx, chatID, senderID)
}

func (b *BotFacade) HandleCancelPost(ctx context.Context, chatID int64) error {
	return b.ComposerUC.Cancel(ctx, chatID)
}

// HandleComposeMessage feeds a non-command message into the chat's draft.
// Non-media input while media is awaited asks again instead of moving on.
func (b *BotFacade) HandleComposeMessage(ctx context.Context, chatID int64, in ComposeInput) (ComposeResult, error) {
	d, err := b.ComposerUC.Current(ctx, chatID)
	if err != nil {
		return ComposeResult{}, err
	}

	switch d.Step {
	case repository.StepAwaitingMedia:
		if !in.Kind.IsMedia() {
			return ComposeResult{Outcome: OutcomeRepromptMedia}, nil
		}
		if err := b.ComposerUC.AttachMedia(ctx, chatID, in.Kind, in.Ref); err != nil {
			if errors.Is(err, domain.ErrUnexpectedInput) {
				return ComposeResult{Outcome: OutcomeRepromptMedia}, nil
			}
			return ComposeResult{}, err
		}
		return ComposeResult{Outcome: OutcomeAskCaption}, nil

	case repository.StepAwaitingCaption:
		// a message without text is an empty caption
		text := ""
		if in.HasText {
			text = in.Text
		}
		post, err := b.ComposerUC.AttachCaption(ctx, chatID, text)
		if err != nil {
			if errors.Is(err, domain.ErrUnexpectedInput) {
				return ComposeResult{Outcome: OutcomeRepromptCaption}, nil
			}
			return ComposeResult{}, err
		}
		return ComposeResult{Outcome: OutcomePreview, Post: post}, nil
	}
	return ComposeResult{Outcome: OutcomeIgnored}, nil
}

// HandleConfirmPost returns once the broadcast has started; done gets the report.
func (b *BotFacade) HandleConfirmPost(ctx context.Context, chatID, adminID int64, done usecase.BroadcastDone) error {
	return b.ComposerUC.Confirm(ctx, chatID, adminID, done)
}
