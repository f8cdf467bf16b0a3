//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-lead-bot/internal/domain"
	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/domain/ports/adapter"
	"telegram-lead-bot/internal/domain/ports/repository"
)

// =============================
// Adapters
// =============================

// SentMessage is one call captured by MockMessenger.
type SentMessage struct {
	Method  string
	ChatID  int64
	Ref     string
	Text    string
	Buttons [][]adapter.InlineButton
}

// MockMessenger records every call. FailFor makes sends to a chat fail.
type MockMessenger struct {
	mu      sync.Mutex
	Sent    []SentMessage
	FailFor map[int64]error
}

var _ adapter.Messenger = (*MockMessenger)(nil)

func (m *MockMessenger) record(method string, chatID int64, ref, text string, rows [][]adapter.InlineButton) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailFor[chatID]; ok {
		return err
	}
	m.Sent = append(m.Sent, SentMessage{Method: method, ChatID: chatID, Ref: ref, Text: text, Buttons: rows})
	return nil
}

func (m *MockMessenger) SendText(ctx context.Context, chatID int64, text string) error {
	return m.record("text", chatID, "", text, nil)
}
func (m *MockMessenger) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	return m.record("buttons", chatID, "", text, rows)
}
func (m *MockMessenger) SendPhoto(ctx context.Context, chatID int64, photo, caption string, rows [][]adapter.InlineButton) error {
	return m.record("photo", chatID, photo, caption, rows)
}
func (m *MockMessenger) SendVideo(ctx context.Context, chatID int64, video, caption string, rows [][]adapter.InlineButton) error {
	return m.record("video", chatID, video, caption, rows)
}
func (m *MockMessenger) SendVideoNote(ctx context.Context, chatID int64, videoNote string, rows [][]adapter.InlineButton) error {
	return m.record("video_note", chatID, videoNote, "", rows)
}

func (m *MockMessenger) SentTo(chatID int64) []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SentMessage
	for _, s := range m.Sent {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

// =============================
// Repositories
// =============================

// MockUserRepo is an in-memory user store with the same uniqueness rule as Postgres.
type MockUserRepo struct {
	mu     sync.Mutex
	nextID int64
	byTg   map[int64]*model.User
	order  []int64

	CreateErr error
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{byTg: make(map[int64]*model.User)}
}

func (m *MockUserRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, u *model.User) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return false, m.CreateErr
	}
	if _, ok := m.byTg[u.TelegramID]; ok {
		return false, nil
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.byTg[u.TelegramID] = &cp
	m.order = append(m.order, u.TelegramID)
	return true, nil
}

func (m *MockUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byTg[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.User, 0, len(m.order))
	for _, id := range m.order {
		cp := *m.byTg[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byTg), nil
}

// MockEngagementRepo keeps (user, label) unique and remembers click order.
type MockEngagementRepo struct {
	mu      sync.Mutex
	users   *MockUserRepo
	records []*model.EngagementRecord

	// Extra is appended to TelegramIDsWithLabel results, to feed duplicates.
	Extra []int64
}

var _ repository.EngagementRepository = (*MockEngagementRepo)(nil)

func NewMockEngagementRepo(users *MockUserRepo) *MockEngagementRepo {
	return &MockEngagementRepo{users: users}
}

func (m *MockEngagementRepo) SaveIfAbsent(ctx context.Context, tx repository.Tx, rec *model.EngagementRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.UserID == rec.UserID && r.Label == rec.Label {
			return false, nil
		}
	}
	rec.ID = int64(len(m.records) + 1)
	m.records = append(m.records, rec)
	return true, nil
}

func (m *MockEngagementRepo) TelegramIDsWithLabel(ctx context.Context, tx repository.Tx, label string) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users.mu.Lock()
	defer m.users.mu.Unlock()
	var out []int64
	for _, r := range m.records {
		if r.Label != label {
			continue
		}
		for _, u := range m.users.byTg {
			if u.ID == r.UserID {
				out = append(out, u.TelegramID)
			}
		}
	}
	return append(out, m.Extra...), nil
}

func (m *MockEngagementRepo) CountWithLabel(ctx context.Context, tx repository.Tx, label string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.records {
		if r.Label == label {
			n++
		}
	}
	return n, nil
}

// MockBroadcastRepo captures saved broadcasts.
type MockBroadcastRepo struct {
	mu         sync.Mutex
	Saved      []*model.Broadcast
	Deliveries map[string][]model.Delivery
	SaveErr    error
}

var _ repository.BroadcastRepository = (*MockBroadcastRepo)(nil)

func (m *MockBroadcastRepo) Save(ctx context.Context, tx repository.Tx, b *model.Broadcast) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saved = append(m.Saved, b)
	return nil
}

func (m *MockBroadcastRepo) SaveDeliveries(ctx context.Context, tx repository.Tx, id string, ds []model.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Deliveries == nil {
		m.Deliveries = map[string][]model.Delivery{}
	}
	m.Deliveries[id] = append(m.Deliveries[id], ds...)
	return nil
}

func (m *MockBroadcastRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.Broadcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Broadcast(nil), m.Saved...), nil
}

// MockDraftRepo keeps drafts per chat in memory.
type MockDraftRepo struct {
	mu     sync.Mutex
	drafts map[int64]repository.Draft
}

var _ repository.DraftRepository = (*MockDraftRepo)(nil)

func NewMockDraftRepo() *MockDraftRepo {
	return &MockDraftRepo{drafts: map[int64]repository.Draft{}}
}

func (m *MockDraftRepo) SetDraft(ctx context.Context, chatID int64, d *repository.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[chatID] = *d
	return nil
}

func (m *MockDraftRepo) GetDraft(ctx context.Context, chatID int64) (*repository.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[chatID]
	if !ok {
		return &repository.Draft{Step: repository.StepIdle}, nil
	}
	return &d, nil
}

func (m *MockDraftRepo) ClearDraft(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, chatID)
	return nil
}

// MockTxManager runs fn without a real transaction.
type MockTxManager struct{}

func (MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// MockLocker is a process-local lock with the same contract as the Redis one.
type MockLocker struct {
	mu   sync.Mutex
	held map[string]string
	n    int
}

func NewMockLocker() *MockLocker { return &MockLocker{held: map[string]string{}} }

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", domain.ErrBroadcastInProgress
	}
	l.n++
	token := fmt.Sprintf("t%d", l.n)
	l.held[key] = token
	return token, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

// =============================
// Helpers
// =============================

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
