package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Broadcast is the persisted audit trail of one confirmed post fan-out.
type Broadcast struct {
	ID              string     `json:"id"`
	AdminTelegramID int64      `json:"admin_telegram_id"`
	Kind            MediaKind  `json:"kind"`
	MediaRef        string     `json:"-"`
	Caption         string     `json:"caption"`
	Recipients      int        `json:"recipients"`
	Delivered       int        `json:"delivered"`
	Failed          int        `json:"failed"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      time.Time  `json:"finished_at"`
	Deliveries      []Delivery `json:"deliveries,omitempty"`
}

// Delivery is the outcome of sending a broadcast to one recipient.
type Delivery struct {
	TelegramID int64     `json:"telegram_id"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	SentAt     time.Time `json:"sent_at"`
}

// DeliveryReport summarises a broadcast for the admin who confirmed it.
type DeliveryReport struct {
	BroadcastID string        `json:"broadcast_id"`
	Recipients  int           `json:"recipients"`
	Delivered   int           `json:"delivered"`
	Failed      int           `json:"failed"`
	Duration    time.Duration `json:"duration"`
}

func NewBroadcast(adminTgID int64, post ComposedPost, recipients int) *Broadcast {
	return &Broadcast{
		ID:              ulid.Make().String(),
		AdminTelegramID: adminTgID,
		Kind:            post.Kind,
		MediaRef:        post.MediaRef,
		Caption:         post.Caption,
		Recipients:      recipients,
		StartedAt:       time.Now().UTC(),
		Deliveries:      make([]Delivery, 0, recipients),
	}
}

// Record appends the outcome for tgID; a nil err counts as delivered.
func (b *Broadcast) Record(tgID int64, err error) {
	d := Delivery{TelegramID: tgID, Success: err == nil, SentAt: time.Now().UTC()}
	if err != nil {
		d.Error = err.Error()
		b.Failed++
	} else {
		b.Delivered++
	}
	b.Deliveries = append(b.Deliveries, d)
}

func (b *Broadcast) Finish() { b.FinishedAt = time.Now().UTC() }

func (b *Broadcast) Report() DeliveryReport {
	end := b.FinishedAt
	if end.IsZero() {
		end = time.Now().UTC()
	}
	return DeliveryReport{
		BroadcastID: b.ID,
		Recipients:  b.Recipients,
		Delivered:   b.Delivered,
		Failed:      b.Failed,
		Duration:    end.Sub(b.StartedAt),
	}
}
