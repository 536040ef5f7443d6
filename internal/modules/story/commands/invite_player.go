package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/avencic/storycircle/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type InvitePlayerCommand struct {
	SessionID uuid.UUID `json:"-"`
	InviterID uuid.UUID `json:"-"`
	TargetID  uuid.UUID `json:"user_id"`
}

func (c InvitePlayerCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if c.InviterID == uuid.Nil {
		return fmt.Errorf("invalid InviterID - '%s'", c.InviterID)
	}

	if c.TargetID == uuid.Nil {
		return fmt.Errorf("invalid TargetID - '%s'", c.TargetID)
	}

	return nil
}

func HandleInvitePlayer(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[InvitePlayerCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	command.SessionID, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}
	command.InviterID = core.CallerIdentity(r.Context()).UserID

	if _, err = mediator.Send[InvitePlayerCommand, core.Unit](r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteNoContent(w, r)
}

type InvitePlayerCommandHandler struct {
	db *sql.DB
}

func NewInvitePlayerCommandHandler(db *sql.DB) *InvitePlayerCommandHandler {
	return &InvitePlayerCommandHandler{db}
}

func (h *InvitePlayerCommandHandler) Handle(
	ctx context.Context,
	request InvitePlayerCommand,
) (core.Unit, error) {
	err := core.Tx(ctx, h.db, func(ctx context.Context, tx *sql.Tx) error {
		roster, err := lockRoster(ctx, tx, request.SessionID)
		if err != nil {
			return mapMembershipError(err)
		}

		if err := roster.CheckInvite(request.InviterID, request.TargetID); err != nil {
			return mapMembershipError(err)
		}

		const targetQuery = `SELECT count(id) FROM auth.user WHERE id = $1;`
		count, err := tql.QuerySingle[int](ctx, tx, targetQuery, request.TargetID)
		if err != nil {
			return core.NewInternalError(err)
		}
		if count == 0 {
			return core.NewNotFoundError(fmt.Errorf("user %s", request.TargetID), "invited user not found")
		}

		const stmt = `
			INSERT INTO
				session_invite (session_id, user_id)
			VALUES
				($1, $2);`
		if _, err := tql.Exec(ctx, tx, stmt, request.SessionID, request.TargetID); err != nil {
			return core.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return core.Unit{}, err
	}

	return core.Unit{}, nil
}
