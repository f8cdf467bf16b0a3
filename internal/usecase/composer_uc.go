package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-lead-bot/internal/domain"
	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/domain/ports/repository"
	"telegram-lead-bot/internal/infra/logging"
	red "telegram-lead-bot/internal/infra/redis"
)

var _ ComposerUseCase = (*composerUC)(nil)

// ComposerUseCase drives an admin through composing one broadcast post.
// Every operation is keyed by the chat the admin composes in; chats never
// share a draft.
type ComposerUseCase interface {
	IsAdmin(tgID int64) bool
	Begin(ctx context.Context, chatID, senderID int64) error
	AttachMedia(ctx context.Context, chatID int64, kind model.MediaKind, ref string) error
	AttachCaption(ctx context.Context, chatID int64, text string) (model.ComposedPost, error)
	Confirm(ctx context.Context, chatID, adminID int64, done BroadcastDone) error
	Cancel(ctx context.Context, chatID int64) error
	Current(ctx context.Context, chatID int64) (*repository.Draft, error)
}

// BroadcastDone receives the outcome of a confirmed broadcast. rep is nil
// when nothing was sent.
type BroadcastDone func(ctx context.Context, rep *model.DeliveryReport, err error)

type composerUC struct {
	drafts      repository.DraftRepository
	broadcaster BroadcastUseCase
	locker      red.Locker
	lockTTL     time.Duration
	admins      map[int64]struct{}
	dev         bool
	running     sync.WaitGroup
	log         *zerolog.Logger
}

func NewComposerUseCase(
	drafts repository.DraftRepository,
	broadcaster BroadcastUseCase,
	locker red.Locker,
	lockTTL time.Duration,
	adminIDs []int64,
	dev bool,
	logger *zerolog.Logger,
) *composerUC {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	if lockTTL <= 0 {
		lockTTL = 30 * time.Minute
	}
	return &composerUC{
		drafts:      drafts,
		broadcaster: broadcaster,
		locker:      locker,
		lockTTL:     lockTTL,
		admins:      admins,
		dev:         dev,
		log:         logger,
	}
}

func (c *composerUC) IsAdmin(tgID int64) bool {
	_, ok := c.admins[tgID]
	return ok
}

// Begin starts a fresh draft, discarding whatever the chat had before.
func (c *composerUC) Begin(ctx context.Context, chatID, senderID int64) error {
	defer logging.TraceDuration(c.log, "ComposerUC.Begin")()
	if !c.IsAdmin(senderID) {
		logging.With(ctx, c.log).Warn().Int64("sender_id", senderID).Msg("Non-admin tried to compose a post")
		return domain.ErrNotAdmin
	}
	return c.drafts.SetDraft(ctx, chatID, &repository.Draft{Step: repository.StepAwaitingMedia})
}

func (c *composerUC) AttachMedia(ctx context.Context, chatID int64, kind model.MediaKind, ref string) error {
	defer logging.TraceDuration(c.log, "ComposerUC.AttachMedia")()
	d, err := c.drafts.GetDraft(ctx, chatID)
	if err != nil {
		return err
	}
	if d.Step != repository.StepAwaitingMedia {
		return domain.ErrUnexpectedInput
	}
	if err := d.Post.AttachMedia(kind, ref); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnexpectedInput, err)
	}
	d.Step = repository.StepAwaitingCaption
	return c.drafts.SetDraft(ctx, chatID, d)
}

// AttachCaption stores text exactly as given; empty text is an empty caption.
func (c *composerUC) AttachCaption(ctx context.Context, chatID int64, text string) (model.ComposedPost, error) {
	defer logging.TraceDuration(c.log, "ComposerUC.AttachCaption")()
	d, err := c.drafts.GetDraft(ctx, chatID)
	if err != nil {
		return model.ComposedPost{}, err
	}
	if d.Step != repository.StepAwaitingCaption {
		return model.ComposedPost{}, domain.ErrUnexpectedInput
	}
	if err := d.Post.AttachCaption(text); err != nil {
		return model.ComposedPost{}, fmt.Errorf("%w: %v", domain.ErrUnexpectedInput, err)
	}
	d.Step = repository.StepAwaitingConfirmation
	if err := c.drafts.SetDraft(ctx, chatID, d); err != nil {
		return model.ComposedPost{}, err
	}
	logging.With(ctx, c.log).Debug().
		Str("kind", string(d.Post.Kind)).
		Str("caption", logging.Redact(text, c.dev)).
		Msg("Caption attached")
	return d.Post, nil
}

// Confirm checks the draft and takes the per-chat lock before returning, so a
// double tap gets ErrBroadcastInProgress. The fan-out itself runs in the
// background; the lock is released when it finishes and done is called after.
func (c *composerUC) Confirm(ctx context.Context, chatID, adminID int64, done BroadcastDone) error {
	defer logging.TraceDuration(c.log, "ComposerUC.Confirm")()
	log := logging.With(ctx, c.log)

	if !c.IsAdmin(adminID) {
		log.Warn().Int64("sender_id", adminID).Msg("Non-admin tried to confirm a broadcast")
		return domain.ErrNotAdmin
	}

	key := red.BroadcastLockKey(chatID)
	token, err := c.locker.TryLock(ctx, key, c.lockTTL)
	if err != nil {
		return err
	}
	unlock := func() {
		if err := c.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			log.Warn().Err(err).Msg("Failed to release broadcast lock")
		}
	}

	d, err := c.drafts.GetDraft(ctx, chatID)
	if err != nil {
		unlock()
		return err
	}
	if d.Step != repository.StepAwaitingConfirmation || !d.Post.Ready() {
		unlock()
		return domain.ErrNothingToConfirm
	}

	post := d.Post
	c.running.Add(1)
	go func() {
		defer c.running.Done()

		rep, err := c.broadcaster.Broadcast(ctx, adminID, post)
		// with rep == nil nothing was sent and the draft stays for a retry
		if rep != nil {
			if cerr := c.drafts.ClearDraft(context.WithoutCancel(ctx), chatID); cerr != nil {
				log.Error().Err(cerr).Msg("Failed to clear draft after broadcast")
			}
		}
		unlock()
		if done != nil {
			done(context.WithoutCancel(ctx), rep, err)
		}
	}()
	return nil
}

// Wait blocks until every broadcast started by Confirm has finished.
func (c *composerUC) Wait() {
	c.running.Wait()
}

func (c *composerUC) Cancel(ctx context.Context, chatID int64) error {
	return c.drafts.ClearDraft(ctx, chatID)
}

func (c *composerUC) Current(ctx context.Context, chatID int64) (*repository.Draft, error) {
	return c.drafts.GetDraft(ctx, chatID)
}
