package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"telegram-lead-bot/internal/domain/ports/repository"
)

var _ repository.DraftRepository = (*DraftRepo)(nil)

// DraftRepo keeps the post composition state per chat. Drafts do not expire;
// they end on broadcast or explicit reset.
type DraftRepo struct {
	client RedisClient
}

func NewDraftRepo(client RedisClient) *DraftRepo {
	return &DraftRepo{client: client}
}

func (s *DraftRepo) draftKey(chatID int64) string {
	return fmt.Sprintf("post_draft:%d", chatID)
}

func (s *DraftRepo) SetDraft(ctx context.Context, chatID int64, d *repository.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.draftKey(chatID), data, 0)
}

func (s *DraftRepo) GetDraft(ctx context.Context, chatID int64) (*repository.Draft, error) {
	data, err := s.client.Get(ctx, s.draftKey(chatID))
	if errors.Is(err, redis.Nil) {
		return &repository.Draft{Step: repository.StepIdle}, nil
	}
	if err != nil {
		return nil, err
	}

	var d repository.Draft
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	if d.Step == "" {
		d.Step = repository.StepIdle
	}
	return &d, nil
}

func (s *DraftRepo) ClearDraft(ctx context.Context, chatID int64) error {
	return s.client.Del(ctx, s.draftKey(chatID))
}
