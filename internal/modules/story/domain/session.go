package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is one collaborative round-table of players steering one
// novel. Round is the explicit token incremented once per successful
// finalization; it is what makes finalize single-flight.
type Session struct {
	ID        uuid.UUID  `db:"id" json:"session_id"`
	HostID    uuid.UUID  `db:"host_id" json:"host_id"`
	NovelID   uuid.UUID  `db:"novel_id" json:"novel_id"`
	Round     int64      `db:"round" json:"round"`
	StartedAt time.Time  `db:"started_at" json:"started_at"`
	EndedAt   *time.Time `db:"ended_at" json:"ended_at,omitempty"`
}

func NewSession(hostID, novelID uuid.UUID) Session {
	return Session{
		ID:        uuid.New(),
		HostID:    hostID,
		NovelID:   novelID,
		StartedAt: time.Now().UTC(),
	}
}

type Player struct {
	SessionID   uuid.UUID  `db:"session_id" json:"-"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	CharacterID *uuid.UUID `db:"character_id" json:"character_id,omitempty"`
	JoinedAt    time.Time  `db:"joined_at" json:"joined_at"`
}

type Invite struct {
	SessionID uuid.UUID `db:"session_id" json:"-"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	InvitedAt time.Time `db:"invited_at" json:"invited_at"`
}

// Choice is one proposed continuation on the current round's ballot.
// A nil ProposerID marks an AI-generated proposal.
type Choice struct {
	ID         uuid.UUID  `db:"id" json:"choice_id"`
	SessionID  uuid.UUID  `db:"session_id" json:"-"`
	ProposerID *uuid.UUID `db:"proposer_id" json:"proposer_id"`
	Content    string     `db:"content" json:"content"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

type Vote struct {
	SessionID uuid.UUID `db:"session_id" json:"-"`
	VoterID   uuid.UUID `db:"voter_id" json:"voter_id"`
	ChoiceID  uuid.UUID `db:"choice_id" json:"choice_id"`
	CastAt    time.Time `db:"cast_at" json:"cast_at"`
}

// ChatMessage ordering is append order (the id sequence), not the
// timestamp - timestamps can skew. A nil UserID marks a system entry.
type ChatMessage struct {
	ID        int64      `db:"id" json:"id"`
	SessionID uuid.UUID  `db:"session_id" json:"-"`
	UserID    *uuid.UUID `db:"user_id" json:"user_id"`
	Message   string     `db:"message" json:"message"`
	CreatedAt time.Time  `db:"created_at" json:"timestamp"`
}

// State is the full session view returned to members.
type State struct {
	Session
	Invited []uuid.UUID              `json:"invited"`
	Players map[uuid.UUID]*uuid.UUID `json:"players"`
	Votes   map[uuid.UUID]uuid.UUID  `json:"votes"`
	Chat    []ChatMessage            `json:"chat"`
}
