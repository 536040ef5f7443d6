package domain

import (
	"time"

	"github.com/google/uuid"
)

// FriendRequest is a pending, directed request. Accepting one creates
// a Friendship row in each direction and removes the request.
type FriendRequest struct {
	RequesterID uuid.UUID `db:"requester_id" json:"requester_id"`
	TargetID    uuid.UUID `db:"target_id" json:"target_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Friendship struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	FriendID  uuid.UUID `db:"friend_id" json:"friend_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
