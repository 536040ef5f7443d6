package domain

import (
	"errors"

	"github.com/google/uuid"
)

// MaxPlayers counts the host plus everyone who joined.
const MaxPlayers = 4

var (
	ErrNotHost        = errors.New("only the host can invite players")
	ErrSelfInvite     = errors.New("host cannot invite themselves")
	ErrAlreadyInvited = errors.New("user is already invited")
	ErrAlreadyPlayer  = errors.New("user has already joined")
	ErrNotInvited     = errors.New("user is not invited to the session")
	ErrNotPlayer      = errors.New("user is not a player in the session")
	ErrNotMember      = errors.New("user is not a session member")
	ErrSessionFull    = errors.New("session player capacity reached")
	ErrNoVotes        = errors.New("no votes have been cast")
	ErrUnknownChoice  = errors.New("choice is not on the current ballot")
)

// Roster is the membership snapshot the rules run against. Callers are
// expected to load it under a session row lock so the checks and the
// writes that follow them see the same state.
type Roster struct {
	Session Session
	Players []Player
	Invited []Invite
}

func (r Roster) IsPlayer(userID uuid.UUID) bool {
	for _, p := range r.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

func (r Roster) IsInvited(userID uuid.UUID) bool {
	for _, i := range r.Invited {
		if i.UserID == userID {
			return true
		}
	}
	return false
}

// IsMember reports whether the user may read session state and act in
// it. The host is always a member, even before any player joins.
func (r Roster) IsMember(userID uuid.UUID) bool {
	return userID == r.Session.HostID || r.IsPlayer(userID)
}

// CheckInvite validates an invitation before it is recorded. Capacity
// counts current players plus every outstanding invite, so the session
// can never be overcommitted even if all invitees accept.
func (r Roster) CheckInvite(inviterID, targetID uuid.UUID) error {
	if inviterID != r.Session.HostID {
		return ErrNotHost
	}
	if targetID == inviterID {
		return ErrSelfInvite
	}
	if r.IsInvited(targetID) {
		return ErrAlreadyInvited
	}
	if r.IsPlayer(targetID) {
		return ErrAlreadyPlayer
	}
	if len(r.Players)+len(r.Invited)+1 > MaxPlayers {
		return ErrSessionFull
	}
	return nil
}

// CheckJoin validates a join attempt. The host is seated at creation
// time and never needs an invite.
func (r Roster) CheckJoin(userID uuid.UUID) error {
	if r.IsPlayer(userID) {
		return ErrAlreadyPlayer
	}
	if userID != r.Session.HostID && !r.IsInvited(userID) {
		return ErrNotInvited
	}
	if len(r.Players) >= MaxPlayers {
		return ErrSessionFull
	}
	return nil
}
