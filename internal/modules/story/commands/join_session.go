package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/avencic/storycircle/internal/modules/core"
	"github.com/avencic/storycircle/internal/modules/story/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type JoinSessionCommand struct {
	SessionID uuid.UUID `json:"-"`
	UserID    uuid.UUID `json:"-"`
}

func (c JoinSessionCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	return nil
}

func HandleJoinSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}

	command := JoinSessionCommand{
		SessionID: sessionID,
		UserID:    core.CallerIdentity(r.Context()).UserID, // you join someone else's session as the logged-in user
	}

	state, err := mediator.Send[JoinSessionCommand, domain.State](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, state)
}

type JoinSessionCommandHandler struct {
	db *sql.DB
}

func NewJoinSessionCommandHandler(db *sql.DB) *JoinSessionCommandHandler {
	return &JoinSessionCommandHandler{db}
}

// Handle consumes the caller's invite and seats them. The capacity
// check runs under the session row lock, so concurrent joins cannot
// push the player count past the limit.
func (h *JoinSessionCommandHandler) Handle(
	ctx context.Context,
	request JoinSessionCommand,
) (domain.State, error) {
	var state domain.State

	err := core.Tx(ctx, h.db, func(ctx context.Context, tx *sql.Tx) error {
		roster, err := lockRoster(ctx, tx, request.SessionID)
		if err != nil {
			return mapMembershipError(err)
		}

		if err := roster.CheckJoin(request.UserID); err != nil {
			return mapMembershipError(err)
		}

		const deleteInviteStmt = `DELETE FROM session_invite WHERE session_id = $1 AND user_id = $2;`
		if _, err := tql.Exec(ctx, tx, deleteInviteStmt, request.SessionID, request.UserID); err != nil {
			return core.NewInternalError(err)
		}

		const playerStmt = `
			INSERT INTO
				session_player (session_id, user_id)
			VALUES
				($1, $2);`
		if _, err := tql.Exec(ctx, tx, playerStmt, request.SessionID, request.UserID); err != nil {
			return core.NewInternalError(err)
		}

		roster, err = lockRoster(ctx, tx, request.SessionID)
		if err != nil {
			return mapMembershipError(err)
		}

		state, err = sessionState(ctx, tx, roster)
		if err != nil {
			return core.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return domain.State{}, err
	}

	return state, nil
}
