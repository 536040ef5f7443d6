package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avencic/storycircle/internal/modules/core"
	"github.com/avencic/storycircle/internal/modules/story/domain"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

var errSessionNotFound = errors.New("session not found")

// lockRoster takes the session row lock and loads the membership
// snapshot under it. Every session mutation goes through this, which is
// what serializes compound check-then-write sequences per session.
func lockRoster(ctx context.Context, tx *sql.Tx, sessionID uuid.UUID) (domain.Roster, error) {
	const sessionQuery = `SELECT * FROM story_session WHERE id = $1 FOR UPDATE;`

	session, err := tql.QuerySingle[domain.Session](ctx, tx, sessionQuery, sessionID)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return domain.Roster{}, errSessionNotFound
	case err != nil:
		return domain.Roster{}, err
	}

	const playersQuery = `SELECT * FROM session_player WHERE session_id = $1 ORDER BY joined_at ASC;`
	players, err := tql.Query[domain.Player](ctx, tx, playersQuery, sessionID)
	if err != nil {
		return domain.Roster{}, err
	}

	const invitesQuery = `SELECT * FROM session_invite WHERE session_id = $1 ORDER BY invited_at ASC;`
	invited, err := tql.Query[domain.Invite](ctx, tx, invitesQuery, sessionID)
	if err != nil {
		return domain.Roster{}, err
	}

	return domain.Roster{Session: session, Players: players, Invited: invited}, nil
}

func loadVotes(ctx context.Context, q core.Querier, sessionID uuid.UUID) ([]domain.Vote, error) {
	const query = `SELECT * FROM session_vote WHERE session_id = $1;`
	return tql.Query[domain.Vote](ctx, q, query, sessionID)
}

func loadChat(ctx context.Context, q core.Querier, sessionID uuid.UUID) ([]domain.ChatMessage, error) {
	const query = `SELECT * FROM session_chat WHERE session_id = $1 ORDER BY id ASC;`
	return tql.Query[domain.ChatMessage](ctx, q, query, sessionID)
}

func insertChat(ctx context.Context, q core.Querier, sessionID uuid.UUID, userID *uuid.UUID, message string) error {
	const stmt = `
		INSERT INTO
			session_chat (session_id, user_id, message)
		VALUES
			($1, $2, $3);`
	_, err := tql.Exec(ctx, q, stmt, sessionID, userID, message)
	return err
}

func insertChoices(
	ctx context.Context,
	q core.Querier,
	sessionID uuid.UUID,
	proposerID *uuid.UUID,
	contents []string,
) ([]domain.Choice, error) {
	choices := make([]domain.Choice, 0, len(contents))
	for _, content := range contents {
		const stmt = `
			INSERT INTO
				session_choice (id, session_id, proposer_id, content)
			VALUES
				($1, $2, $3, $4)
			RETURNING
				*;`
		choice, err := tql.QuerySingle[domain.Choice](ctx, q, stmt, uuid.New(), sessionID, proposerID, content)
		if err != nil {
			return nil, err
		}
		choices = append(choices, choice)
	}
	return choices, nil
}

func sessionState(ctx context.Context, q core.Querier, roster domain.Roster) (domain.State, error) {
	votes, err := loadVotes(ctx, q, roster.Session.ID)
	if err != nil {
		return domain.State{}, err
	}

	chat, err := loadChat(ctx, q, roster.Session.ID)
	if err != nil {
		return domain.State{}, err
	}

	state := domain.State{
		Session: roster.Session,
		Invited: core.Map(roster.Invited, func(i domain.Invite) uuid.UUID { return i.UserID }),
		Players: make(map[uuid.UUID]*uuid.UUID, len(roster.Players)),
		Votes:   make(map[uuid.UUID]uuid.UUID, len(votes)),
		Chat:    chat,
	}
	for _, player := range roster.Players {
		state.Players[player.UserID] = player.CharacterID
	}
	for _, vote := range votes {
		state.Votes[vote.VoterID] = vote.ChoiceID
	}

	return state, nil
}

// mapMembershipError translates domain rule violations into the HTTP
// error taxonomy.
func mapMembershipError(err error) error {
	switch {
	case errors.Is(err, errSessionNotFound):
		return core.NewNotFoundError(err, "session not found")
	case errors.Is(err, domain.ErrNotHost),
		errors.Is(err, domain.ErrNotInvited),
		errors.Is(err, domain.ErrNotPlayer),
		errors.Is(err, domain.ErrNotMember):
		return core.NewForbiddenError(err, err.Error())
	case errors.Is(err, domain.ErrSelfInvite),
		errors.Is(err, domain.ErrNoVotes):
		return core.NewInvalidArgumentError(err, err.Error())
	case errors.Is(err, domain.ErrAlreadyInvited),
		errors.Is(err, domain.ErrAlreadyPlayer):
		return core.NewConflictError(err, err.Error())
	case errors.Is(err, domain.ErrSessionFull):
		return core.NewConflictError(err, fmt.Sprintf("session capacity of %d players reached", domain.MaxPlayers))
	case errors.Is(err, domain.ErrUnknownChoice):
		return core.NewNotFoundError(err, err.Error())
	default:
		return core.NewInternalError(err)
	}
}
