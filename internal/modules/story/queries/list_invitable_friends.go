package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/avencic/storycircle/internal/modules/core"
	"github.com/avencic/storycircle/internal/modules/story"
	"github.com/avencic/storycircle/internal/modules/story/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ListInvitableFriendsQuery struct {
	SessionID uuid.UUID
	CallerID  uuid.UUID
}

type InvitableFriend struct {
	UserID   uuid.UUID `db:"id" json:"user_id"`
	Username string    `db:"username" json:"username"`
}

func HandleListInvitableFriends(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}

	query := ListInvitableFriendsQuery{
		SessionID: sessionID,
		CallerID:  core.CallerIdentity(r.Context()).UserID,
	}

	friends, err := mediator.Send[ListInvitableFriendsQuery, []InvitableFriend](r.Context(), query)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, friends)
}

type ListInvitableFriendsQueryHandler struct {
	db      *sql.DB
	friends story.FriendsDirectory
}

func NewListInvitableFriendsQueryHandler(db *sql.DB, friends story.FriendsDirectory) *ListInvitableFriendsQueryHandler {
	return &ListInvitableFriendsQueryHandler{db, friends}
}

// Handle returns the caller's friends who could still be invited:
// not already seated, not already holding an invite.
func (h *ListInvitableFriendsQueryHandler) Handle(
	ctx context.Context,
	request ListInvitableFriendsQuery,
) ([]InvitableFriend, error) {
	const sessionQuery = `SELECT * FROM story_session WHERE id = $1;`
	session, err := tql.QuerySingle[domain.Session](ctx, h.db, sessionQuery, request.SessionID)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return nil, core.NewNotFoundError(err, "session not found")
	case err != nil:
		return nil, core.NewInternalError(err)
	}

	const playersQuery = `SELECT * FROM session_player WHERE session_id = $1;`
	players, err := tql.Query[domain.Player](ctx, h.db, playersQuery, request.SessionID)
	if err != nil {
		return nil, core.NewInternalError(err)
	}

	roster := domain.Roster{Session: session, Players: players}
	if !roster.IsMember(request.CallerID) {
		return nil, core.NewForbiddenError(domain.ErrNotMember, domain.ErrNotMember.Error())
	}

	friendIDs, err := h.friends.ListFriendIDs(ctx, h.db, request.CallerID)
	if err != nil {
		return nil, core.NewInternalError(err)
	}
	if len(friendIDs) == 0 {
		return []InvitableFriend{}, nil
	}

	ids := core.Map(friendIDs, func(id uuid.UUID) string { return id.String() })

	const query = `
		SELECT
			u.id, u.username
		FROM
			auth.user u
		WHERE
			u.id = any($2::uuid[])
			AND u.id NOT IN (SELECT user_id FROM session_player WHERE session_id = $1)
			AND u.id NOT IN (SELECT user_id FROM session_invite WHERE session_id = $1)
		ORDER BY
			u.username ASC;`

	invitable, err := tql.Query[InvitableFriend](ctx, h.db, query, request.SessionID, pq.Array(ids))
	if err != nil {
		return nil, core.NewInternalError(err)
	}

	return invitable, nil
}
