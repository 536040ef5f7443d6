package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/avencic/storycircle/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type SendFriendRequestCommand struct {
	RequesterID uuid.UUID `json:"-"`
	TargetID    uuid.UUID `json:"target_user_id"`
}

func (c SendFriendRequestCommand) Validate() error {
	if c.RequesterID == uuid.Nil {
		return fmt.Errorf("invalid RequesterID - '%s'", c.RequesterID)
	}

	if c.TargetID == uuid.Nil {
		return fmt.Errorf("invalid TargetID - '%s'", c.TargetID)
	}

	return nil
}

func HandleSendFriendRequest(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[SendFriendRequestCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.RequesterID = core.CallerIdentity(r.Context()).UserID

	if _, err = mediator.Send[SendFriendRequestCommand, core.Unit](r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteNoContent(w, r)
}

type SendFriendRequestCommandHandler struct {
	db *sql.DB
}

func NewSendFriendRequestCommandHandler(db *sql.DB) *SendFriendRequestCommandHandler {
	return &SendFriendRequestCommandHandler{db}
}

func (h *SendFriendRequestCommandHandler) Handle(
	ctx context.Context,
	request SendFriendRequestCommand,
) (core.Unit, error) {
	if request.TargetID == request.RequesterID {
		return core.Unit{}, core.NewInvalidArgumentError(
			fmt.Errorf("self friend request"), "cannot send a friend request to yourself")
	}

	err := core.Tx(ctx, h.db, func(ctx context.Context, tx *sql.Tx) error {
		const targetQuery = `SELECT count(id) FROM auth.user WHERE id = $1;`
		count, err := tql.QuerySingle[int](ctx, tx, targetQuery, request.TargetID)
		if err != nil {
			return core.NewInternalError(err)
		}
		if count == 0 {
			return core.NewNotFoundError(fmt.Errorf("user %s", request.TargetID), "target user not found")
		}

		const friendsQuery = `
			SELECT
				count(*)
			FROM
				friendship
			WHERE
				user_id = $1 AND friend_id = $2;`
		count, err = tql.QuerySingle[int](ctx, tx, friendsQuery, request.RequesterID, request.TargetID)
		if err != nil {
			return core.NewInternalError(err)
		}
		if count > 0 {
			return core.NewConflictError(fmt.Errorf("already friends"), "already friends")
		}

		// A pending request in either direction blocks a new one.
		const pendingQuery = `
			SELECT
				count(*)
			FROM
				friend_request
			WHERE
				(requester_id = $1 AND target_id = $2) OR (requester_id = $2 AND target_id = $1);`
		count, err = tql.QuerySingle[int](ctx, tx, pendingQuery, request.RequesterID, request.TargetID)
		if err != nil {
			return core.NewInternalError(err)
		}
		if count > 0 {
			return core.NewConflictError(fmt.Errorf("request pending"), "friend request already pending")
		}

		const stmt = `
			INSERT INTO
				friend_request (requester_id, target_id)
			VALUES
				($1, $2);`
		if _, err := tql.Exec(ctx, tx, stmt, request.RequesterID, request.TargetID); err != nil {
			return core.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return core.Unit{}, err
	}

	return core.Unit{}, nil
}
