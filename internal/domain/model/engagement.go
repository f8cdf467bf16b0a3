package model

import (
	"strings"
	"time"

	"telegram-lead-bot/internal/domain"
)

// LabelOptIn is the only button label tracked today.
const LabelOptIn = "opted-in"

// EngagementRecord marks that a user pressed a tracked button.
// There is at most one record per (UserID, Label).
type EngagementRecord struct {
	ID        int64
	UserID    int64
	Label     string
	ClickedAt time.Time
}

func NewEngagementRecord(userID int64, label string) (*EngagementRecord, error) {
	label = strings.TrimSpace(label)
	if userID <= 0 || label == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &EngagementRecord{
		UserID:    userID,
		Label:     label,
		ClickedAt: time.Now().UTC(),
	}, nil
}
