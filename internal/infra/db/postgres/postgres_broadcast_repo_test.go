//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v4"

	"telegram-lead-bot/internal/domain/model"
	"telegram-lead-bot/internal/domain/ports/repository"
)

func TestBroadcastRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewBroadcastRepo(testPool)
	txm := NewTxManager(testPool)
	ctx := context.Background()
	post := model.ComposedPost{Kind: model.MediaPhoto, MediaRef: "ABC123", Caption: "Hello", CaptionSet: true}

	t.Run("should save a broadcast with its deliveries in one transaction", func(t *testing.T) {
		cleanup(t)
		b := model.NewBroadcast(6220854815, post, 2)
		b.Record(1001, nil)
		b.Record(1002, errors.New("blocked"))
		b.Finish()

		err := txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			if err := repo.Save(ctx, tx, b); err != nil {
				return err
			}
			return repo.SaveDeliveries(ctx, tx, b.ID, b.Deliveries)
		})
		if err != nil {
			t.Fatalf("WithTx failed: %v", err)
		}

		var n int
		if err := testPool.QueryRow(ctx, `SELECT COUNT(*) FROM broadcast_deliveries WHERE broadcast_id = $1`, b.ID).Scan(&n); err != nil {
			t.Fatalf("count deliveries: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 deliveries, got %d", n)
		}

		recent, err := repo.ListRecent(ctx, nil, 10)
		if err != nil {
			t.Fatalf("ListRecent failed: %v", err)
		}
		if len(recent) != 1 || recent[0].Delivered != 1 || recent[0].Failed != 1 || recent[0].Kind != model.MediaPhoto {
			t.Errorf("unexpected broadcasts: %+v", recent)
		}
	})

	t.Run("should roll back when the callback fails", func(t *testing.T) {
		cleanup(t)
		b := model.NewBroadcast(6220854815, post, 0)
		boom := errors.New("boom")

		err := txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			if err := repo.Save(ctx, tx, b); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}

		recent, err := repo.ListRecent(ctx, nil, 0)
		if err != nil {
			t.Fatalf("ListRecent failed: %v", err)
		}
		if len(recent) != 0 {
			t.Errorf("expected rollback, found %d broadcasts", len(recent))
		}
	})
}
