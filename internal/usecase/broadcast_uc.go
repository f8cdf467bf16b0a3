package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-lead-bot/internal/domain"
	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/domain/ports/adapter"
	"telegram-lead-bot/internal/domain/ports/repository"
	"telegram-lead-bot/internal/infra/logging"
	"telegram-lead-bot/internal/infra/metrics"
)

var _ BroadcastUseCase = (*broadcastUC)(nil)

type BroadcastUseCase interface {
	// Broadcast delivers post to every opted-in user, one recipient at a time.
	// A failed recipient is counted and skipped; it never stops the fan-out.
	Broadcast(ctx context.Context, adminID int64, post model.ComposedPost) (*model.DeliveryReport, error)
	Recent(ctx context.Context, limit int) ([]*model.Broadcast, error)
}

type broadcastUC struct {
	engagements EngagementUseCase
	broadcasts  repository.BroadcastRepository
	tm          repository.TransactionManager
	bot         adapter.Messenger
	interval    time.Duration
	log         *zerolog.Logger
}

func NewBroadcastUseCase(
	engagements EngagementUseCase,
	broadcasts repository.BroadcastRepository,
	tm repository.TransactionManager,
	bot adapter.Messenger,
	interval time.Duration,
	logger *zerolog.Logger,
) *broadcastUC {
	return &broadcastUC{
		engagements: engagements,
		broadcasts:  broadcasts,
		tm:          tm,
		bot:         bot,
		interval:    interval,
		log:         logger,
	}
}

func (uc *broadcastUC) Broadcast(ctx context.Context, adminID int64, post model.ComposedPost) (*model.DeliveryReport, error) {
	defer logging.TraceDuration(uc.log, "BroadcastUC.Broadcast")()
	log := logging.With(ctx, uc.log)

	if !post.HasMedia() {
		return nil, domain.ErrInvalidArgument
	}
	ids, err := uc.engagements.UsersWithLabel(ctx, model.LabelOptIn)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch recipients for broadcast")
		return nil, err
	}
	recipients := dedupe(ids)
	units := RenderPost(post)

	b := model.NewBroadcast(adminID, post, len(recipients))
	log.Info().Str("broadcast_id", b.ID).Int("recipients", len(recipients)).Str("kind", string(post.Kind)).Msg("Starting broadcast")

	// Throttle to respect Telegram's API limits (approx. 30 messages/sec)
	var throttle *time.Ticker
	if uc.interval > 0 {
		throttle = time.NewTicker(uc.interval)
		defer throttle.Stop()
	}

	var stopErr error
	for i, tgID := range recipients {
		if throttle != nil && i > 0 {
			select {
			case <-ctx.Done():
				stopErr = ctx.Err()
			case <-throttle.C:
			}
		} else if ctx.Err() != nil {
			stopErr = ctx.Err()
		}
		if stopErr != nil {
			log.Warn().Err(stopErr).Int("sent", i).Msg("Broadcast interrupted")
			break
		}

		err := Deliver(ctx, uc.bot, tgID, units, nil)
		b.Record(tgID, err)
		metrics.IncBroadcastDelivery(err == nil)
		if err != nil {
			log.Warn().Err(err).Int64("tg_id", tgID).Msg("Failed to deliver broadcast to user")
		}
	}
	b.Finish()

	metrics.IncBroadcast(string(post.Kind))
	rep := b.Report()
	metrics.ObserveBroadcastDuration(rep.Duration.Seconds())
	uc.saveAudit(context.WithoutCancel(ctx), b, log)

	log.Info().
		Str("broadcast_id", b.ID).
		Int("delivered", rep.Delivered).
		Int("failed", rep.Failed).
		Dur("duration", rep.Duration).
		Msg("Broadcast finished")
	return &rep, stopErr
}

// saveAudit stores the broadcast and its deliveries atomically. The fan-out
// already happened, so a failure here is only logged.
func (uc *broadcastUC) saveAudit(ctx context.Context, b *model.Broadcast, log *zerolog.Logger) {
	if uc.broadcasts == nil || uc.tm == nil {
		return
	}
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.broadcasts.Save(ctx, tx, b); err != nil {
			return err
		}
		return uc.broadcasts.SaveDeliveries(ctx, tx, b.ID, b.Deliveries)
	})
	if err != nil {
		log.Error().Err(err).Str("broadcast_id", b.ID).Msg("Failed to persist broadcast audit")
	}
}

func (uc *broadcastUC) Recent(ctx context.Context, limit int) ([]*model.Broadcast, error) {
	if uc.broadcasts == nil {
		return nil, nil
	}
	return uc.broadcasts.ListRecent(ctx, repository.NoTX, limit)
}

// dedupe keeps the first occurrence of every ID.
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
