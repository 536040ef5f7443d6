package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const SessionDuration = 30 * 24 * time.Hour

// Session is a login session - the opaque token handed to the client
// and resolved back to a user id on every request.
type Session struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func NewSession(userID uuid.UUID) Session {
	now := time.Now().UTC()
	return Session{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionDuration),
	}
}

func (s Session) Validate() error {
	if time.Now().UTC().After(s.ExpiresAt) {
		return fmt.Errorf("session expired at %s", s.ExpiresAt)
	}

	return nil
}
