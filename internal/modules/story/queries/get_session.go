package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/avencic/storycircle/internal/modules/core"
	"github.com/avencic/storycircle/internal/modules/story/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type GetSessionStateQuery struct {
	SessionID uuid.UUID
	CallerID  uuid.UUID
}

func HandleGetSessionState(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}

	query := GetSessionStateQuery{
		SessionID: sessionID,
		CallerID:  core.CallerIdentity(r.Context()).UserID,
	}

	state, err := mediator.Send[GetSessionStateQuery, domain.State](r.Context(), query)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, state)
}

type GetSessionStateQueryHandler struct {
	db *sql.DB
}

func NewGetSessionStateQueryHandler(db *sql.DB) *GetSessionStateQueryHandler {
	return &GetSessionStateQueryHandler{db}
}

// Handle returns the session snapshot. Members and invited users can
// read it; invited users poll it while deciding whether to join.
func (h *GetSessionStateQueryHandler) Handle(
	ctx context.Context,
	request GetSessionStateQuery,
) (domain.State, error) {
	const sessionQuery = `SELECT * FROM story_session WHERE id = $1;`
	session, err := tql.QuerySingle[domain.Session](ctx, h.db, sessionQuery, request.SessionID)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return domain.State{}, core.NewNotFoundError(err, "session not found")
	case err != nil:
		return domain.State{}, core.NewInternalError(err)
	}

	const playersQuery = `SELECT * FROM session_player WHERE session_id = $1 ORDER BY joined_at ASC;`
	players, err := tql.Query[domain.Player](ctx, h.db, playersQuery, request.SessionID)
	if err != nil {
		return domain.State{}, core.NewInternalError(err)
	}

	const invitesQuery = `SELECT * FROM session_invite WHERE session_id = $1 ORDER BY invited_at ASC;`
	invited, err := tql.Query[domain.Invite](ctx, h.db, invitesQuery, request.SessionID)
	if err != nil {
		return domain.State{}, core.NewInternalError(err)
	}

	roster := domain.Roster{Session: session, Players: players, Invited: invited}
	if !roster.IsMember(request.CallerID) && !roster.IsInvited(request.CallerID) {
		return domain.State{}, core.NewForbiddenError(domain.ErrNotMember, domain.ErrNotMember.Error())
	}

	const votesQuery = `SELECT * FROM session_vote WHERE session_id = $1;`
	votes, err := tql.Query[domain.Vote](ctx, h.db, votesQuery, request.SessionID)
	if err != nil {
		return domain.State{}, core.NewInternalError(err)
	}

	const chatQuery = `SELECT * FROM session_chat WHERE session_id = $1 ORDER BY id ASC;`
	chat, err := tql.Query[domain.ChatMessage](ctx, h.db, chatQuery, request.SessionID)
	if err != nil {
		return domain.State{}, core.NewInternalError(err)
	}

	state := domain.State{
		Session: session,
		Invited: core.Map(invited, func(i domain.Invite) uuid.UUID { return i.UserID }),
		Players: make(map[uuid.UUID]*uuid.UUID, len(players)),
		Votes:   make(map[uuid.UUID]uuid.UUID, len(votes)),
		Chat:    chat,
	}
	for _, player := range players {
		state.Players[player.UserID] = player.CharacterID
	}
	for _, vote := range votes {
		state.Votes[vote.VoterID] = vote.ChoiceID
	}

	return state, nil
}
