//go:build !integration

package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-lead-bot/internal/domain"
	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/domain/ports/repository"
	"telegram-lead-bot/internal/usecase"
)

const testAdmin int64 = 6220854815

type stubBroadcaster struct {
	calls   []model.ComposedPost
	err     error
	started chan struct{}
	release chan struct{}
}

func (s *stubBroadcaster) Broadcast(ctx context.Context, adminID int64, post model.ComposedPost) (*model.DeliveryReport, error) {
	s.calls = append(s.calls, post)
	if s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return &model.DeliveryReport{Recipients: 1, Delivered: 1}, nil
}

func (s *stubBroadcaster) Recent(ctx context.Context, limit int) ([]*model.Broadcast, error) {
	return nil, nil
}

func newComposer() (usecase.ComposerUseCase, *MockDraftRepo, *stubBroadcaster, *MockLocker) {
	drafts := NewMockDraftRepo()
	b := &stubBroadcaster{}
	locker := NewMockLocker()
	uc := usecase.NewComposerUseCase(drafts, b, locker, 0, []int64{testAdmin, 1617370561}, false, newTestLogger())
	return uc, drafts, b, locker
}

type confirmResult struct {
	rep *model.DeliveryReport
	err error
}

// confirmAndWait confirms and blocks until the background broadcast reports.
func confirmAndWait(ctx context.Context, uc usecase.ComposerUseCase, chatID, adminID int64) (*model.DeliveryReport, error) {
	res := make(chan confirmResult, 1)
	err := uc.Confirm(ctx, chatID, adminID, func(_ context.Context, rep *model.DeliveryReport, err error) {
		res <- confirmResult{rep, err}
	})
	if err != nil {
		return nil, err
	}
	r := <-res
	return r.rep, r.err
}

func TestComposerUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("should refuse non-admins and leave state alone", func(t *testing.T) {
		uc, drafts, _, _ := newComposer()
		if err := uc.Begin(ctx, 55, 55); !errors.Is(err, domain.ErrNotAdmin) {
			t.Fatalf("expected ErrNotAdmin, got %v", err)
		}
		d, _ := drafts.GetDraft(ctx, 55)
		if d.Step != repository.StepIdle {
			t.Errorf("expected idle, got %s", d.Step)
		}
	})

	t.Run("should walk media, caption and confirmation", func(t *testing.T) {
		uc, _, b, _ := newComposer()
		chat := testAdmin

		if err := uc.Begin(ctx, chat, testAdmin); err != nil {
			t.Fatalf("Begin failed: %v", err)
		}
		if err := uc.AttachMedia(ctx, chat, model.MediaVideo, "VID"); err != nil {
			t.Fatalf("AttachMedia failed: %v", err)
		}
		d, _ := uc.Current(ctx, chat)
		if d.Step != repository.StepAwaitingCaption || d.Post.Kind != model.MediaVideo {
			t.Fatalf("unexpected draft %+v", d)
		}

		post, err := uc.AttachCaption(ctx, chat, "  exact text ")
		if err != nil {
			t.Fatalf("AttachCaption failed: %v", err)
		}
		if post.Caption != "  exact text " {
			t.Errorf("caption must be stored verbatim, got %q", post.Caption)
		}

		rep, err := confirmAndWait(ctx, uc, chat, testAdmin)
		if err != nil || rep == nil {
			t.Fatalf("Confirm failed: %v", err)
		}
		if len(b.calls) != 1 || b.calls[0].MediaRef != "VID" {
			t.Errorf("unexpected broadcast calls %+v", b.calls)
		}
		d, _ = uc.Current(ctx, chat)
		if d.Step != repository.StepIdle {
			t.Errorf("expected idle after broadcast, got %s", d.Step)
		}
	})

	t.Run("should ignore input for the wrong step", func(t *testing.T) {
		uc, _, _, _ := newComposer()
		chat := testAdmin

		if _, err := uc.AttachCaption(ctx, chat, "early"); !errors.Is(err, domain.ErrUnexpectedInput) {
			t.Errorf("expected ErrUnexpectedInput in idle, got %v", err)
		}
		_ = uc.Begin(ctx, chat, testAdmin)
		if _, err := uc.AttachCaption(ctx, chat, "no media yet"); !errors.Is(err, domain.ErrUnexpectedInput) {
			t.Errorf("expected ErrUnexpectedInput before media, got %v", err)
		}
		if err := uc.AttachMedia(ctx, chat, model.MediaPhoto, ""); !errors.Is(err, domain.ErrUnexpectedInput) {
			t.Errorf("expected ErrUnexpectedInput for empty ref, got %v", err)
		}
		d, _ := uc.Current(ctx, chat)
		if d.Step != repository.StepAwaitingMedia {
			t.Errorf("state must not move, got %s", d.Step)
		}
		if err := uc.Confirm(ctx, chat, testAdmin, nil); !errors.Is(err, domain.ErrNothingToConfirm) {
			t.Errorf("expected ErrNothingToConfirm, got %v", err)
		}
	})

	t.Run("should store caption text verbatim", func(t *testing.T) {
		uc, drafts, _, _ := newComposer()
		_ = uc.Begin(ctx, 1, testAdmin)
		_ = uc.AttachMedia(ctx, 1, model.MediaVideoNote, "N")
		post, err := uc.AttachCaption(ctx, 1, "-")
		if err != nil || post.Caption != "-" || !post.Ready() {
			t.Errorf("expected caption %q, got %+v err %v", "-", post, err)
		}
		d, _ := drafts.GetDraft(ctx, 1)
		if d.Post.Caption != "-" || d.Step != repository.StepAwaitingConfirmation {
			t.Errorf("unexpected stored draft %+v", d)
		}
	})

	t.Run("should accept an empty caption", func(t *testing.T) {
		uc, _, _, _ := newComposer()
		_ = uc.Begin(ctx, 1, testAdmin)
		_ = uc.AttachMedia(ctx, 1, model.MediaPhoto, "A")
		post, err := uc.AttachCaption(ctx, 1, "")
		if err != nil || post.Caption != "" || !post.Ready() {
			t.Errorf("expected a ready post with empty caption, got %+v err %v", post, err)
		}
	})

	t.Run("should restart when compose is issued again", func(t *testing.T) {
		uc, _, _, _ := newComposer()
		_ = uc.Begin(ctx, 1, testAdmin)
		_ = uc.AttachMedia(ctx, 1, model.MediaPhoto, "A")
		_ = uc.Begin(ctx, 1, testAdmin)
		d, _ := uc.Current(ctx, 1)
		if d.Step != repository.StepAwaitingMedia || d.Post.HasMedia() {
			t.Errorf("expected a fresh draft, got %+v", d)
		}
	})

	t.Run("should keep chats independent", func(t *testing.T) {
		uc, _, _, _ := newComposer()
		_ = uc.Begin(ctx, testAdmin, testAdmin)
		_ = uc.Begin(ctx, 1617370561, 1617370561)
		_ = uc.AttachMedia(ctx, testAdmin, model.MediaPhoto, "A")

		other, _ := uc.Current(ctx, 1617370561)
		if other.Step != repository.StepAwaitingMedia || other.Post.HasMedia() {
			t.Errorf("second admin draft changed: %+v", other)
		}
	})

	t.Run("should refuse a confirm while a broadcast holds the lock", func(t *testing.T) {
		uc, _, b, locker := newComposer()
		_ = uc.Begin(ctx, 1, testAdmin)
		_ = uc.AttachMedia(ctx, 1, model.MediaPhoto, "A")
		_, _ = uc.AttachCaption(ctx, 1, "c")
		if _, err := locker.TryLock(ctx, "broadcast_lock:1", 0); err != nil {
			t.Fatalf("pre-lock failed: %v", err)
		}

		if err := uc.Confirm(ctx, 1, testAdmin, nil); !errors.Is(err, domain.ErrBroadcastInProgress) {
			t.Errorf("expected ErrBroadcastInProgress, got %v", err)
		}
		if len(b.calls) != 0 {
			t.Error("no broadcast may start while locked")
		}
	})

	t.Run("should return before the broadcast finishes and hold the lock meanwhile", func(t *testing.T) {
		uc, _, b, _ := newComposer()
		b.started = make(chan struct{})
		b.release = make(chan struct{})
		_ = uc.Begin(ctx, 1, testAdmin)
		_ = uc.AttachMedia(ctx, 1, model.MediaPhoto, "A")
		_, _ = uc.AttachCaption(ctx, 1, "c")

		// Arrange
		done := make(chan *model.DeliveryReport, 1)
		// Act
		err := uc.Confirm(ctx, 1, testAdmin, func(_ context.Context, rep *model.DeliveryReport, _ error) {
			done <- rep
		})
		// Assert
		if err != nil {
			t.Fatalf("Confirm failed: %v", err)
		}
		select {
		case <-b.started:
		case <-time.After(time.Second):
			t.Fatal("broadcast did not start")
		}
		if err := uc.Confirm(ctx, 1, testAdmin, nil); !errors.Is(err, domain.ErrBroadcastInProgress) {
			t.Errorf("expected ErrBroadcastInProgress while running, got %v", err)
		}
		select {
		case <-done:
			t.Fatal("report arrived before the broadcast finished")
		default:
		}

		close(b.release)
		select {
		case rep := <-done:
			if rep == nil || rep.Delivered != 1 {
				t.Errorf("unexpected report %+v", rep)
			}
		case <-time.After(time.Second):
			t.Fatal("report never arrived")
		}
		d, _ := uc.Current(ctx, 1)
		if d.Step != repository.StepIdle {
			t.Errorf("expected idle after broadcast, got %s", d.Step)
		}
	})

	t.Run("should keep the draft when the broadcast cannot start", func(t *testing.T) {
		uc, _, b, _ := newComposer()
		b.err = errors.New("db down")
		_ = uc.Begin(ctx, 1, testAdmin)
		_ = uc.AttachMedia(ctx, 1, model.MediaPhoto, "A")
		_, _ = uc.AttachCaption(ctx, 1, "c")

		if _, err := confirmAndWait(ctx, uc, 1, testAdmin); err == nil {
			t.Fatal("expected an error")
		}
		d, _ := uc.Current(ctx, 1)
		if d.Step != repository.StepAwaitingConfirmation {
			t.Errorf("expected draft to survive, got %s", d.Step)
		}
	})

	t.Run("should re-check the admin on confirm", func(t *testing.T) {
		uc, _, _, _ := newComposer()
		_ = uc.Begin(ctx, 1, testAdmin)
		if err := uc.Confirm(ctx, 1, 99, nil); !errors.Is(err, domain.ErrNotAdmin) {
			t.Errorf("expected ErrNotAdmin, got %v", err)
		}
	})

	t.Run("should redact the caption in logs outside dev", func(t *testing.T) {
		var buf bytes.Buffer
		logger := zerolog.New(&buf)
		uc := usecase.NewComposerUseCase(NewMockDraftRepo(), &stubBroadcaster{}, NewMockLocker(), 0, []int64{testAdmin}, false, &logger)
		_ = uc.Begin(ctx, 1, testAdmin)
		_ = uc.AttachMedia(ctx, 1, model.MediaPhoto, "A")

		if _, err := uc.AttachCaption(ctx, 1, "Secret launch details"); err != nil {
			t.Fatalf("AttachCaption failed: %v", err)
		}
		if strings.Contains(buf.String(), "Secret launch details") {
			t.Errorf("caption leaked into logs: %s", buf.String())
		}
		if !strings.Contains(buf.String(), `"caption":"Secr...ls"`) {
			t.Errorf("expected a redacted caption field, got %s", buf.String())
		}
	})

	t.Run("cancel returns to idle", func(t *testing.T) {
		uc, _, _, _ := newComposer()
		_ = uc.Begin(ctx, 1, testAdmin)
		if err := uc.Cancel(ctx, 1); err != nil {
			t.Fatalf("Cancel failed: %v", err)
		}
		d, _ := uc.Current(ctx, 1)
		if d.Step != repository.StepIdle {
			t.Errorf("expected idle, got %s", d.Step)
		}
	})
}
