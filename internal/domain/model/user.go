package model

import (
	"strings"
	"time"

	"telegram-lead-bot/internal/domain"
)

// User is a Telegram user that has reached the bot at least once.
// ID is assigned by the store; JoinedAt is set on first contact and never changes.
type User struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	FullName   string    `json:"full_name"`
	JoinedAt   time.Time `json:"joined_at"`
}

func NewUser(tgID int64, firstName, lastName string) (*User, error) {
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		TelegramID: tgID,
		FirstName:  firstName,
		LastName:   lastName,
		FullName:   FullName(firstName, lastName),
		JoinedAt:   time.Now().UTC(),
	}, nil
}

// FullName joins first and last name the way Telegram clients display them.
func FullName(firstName, lastName string) string {
	return strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
}
