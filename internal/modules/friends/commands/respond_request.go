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

type AcceptFriendRequestCommand struct {
	UserID      uuid.UUID `json:"-"`
	RequesterID uuid.UUID `json:"requester_user_id"`
}

func (c AcceptFriendRequestCommand) Validate() error {
	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	if c.RequesterID == uuid.Nil {
		return fmt.Errorf("invalid RequesterID - '%s'", c.RequesterID)
	}

	return nil
}

func HandleAcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[AcceptFriendRequestCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.UserID = core.CallerIdentity(r.Context()).UserID

	if _, err = mediator.Send[AcceptFriendRequestCommand, core.Unit](r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteNoContent(w, r)
}

type AcceptFriendRequestCommandHandler struct {
	db *sql.DB
}

func NewAcceptFriendRequestCommandHandler(db *sql.DB) *AcceptFriendRequestCommandHandler {
	return &AcceptFriendRequestCommandHandler{db}
}

func (h *AcceptFriendRequestCommandHandler) Handle(
	ctx context.Context,
	request AcceptFriendRequestCommand,
) (core.Unit, error) {
	err := core.Tx(ctx, h.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := deleteRequest(ctx, tx, request.RequesterID, request.UserID); err != nil {
			return err
		}

		const stmt = `
			INSERT INTO
				friendship (user_id, friend_id)
			VALUES
				($1, $2), ($2, $1);`
		if _, err := tql.Exec(ctx, tx, stmt, request.UserID, request.RequesterID); err != nil {
			return core.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return core.Unit{}, err
	}

	return core.Unit{}, nil
}

type RejectFriendRequestCommand struct {
	UserID      uuid.UUID `json:"-"`
	RequesterID uuid.UUID `json:"requester_user_id"`
}

func (c RejectFriendRequestCommand) Validate() error {
	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	if c.RequesterID == uuid.Nil {
		return fmt.Errorf("invalid RequesterID - '%s'", c.RequesterID)
	}

	return nil
}

func HandleRejectFriendRequest(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[RejectFriendRequestCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.UserID = core.CallerIdentity(r.Context()).UserID

	if _, err = mediator.Send[RejectFriendRequestCommand, core.Unit](r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteNoContent(w, r)
}

type RejectFriendRequestCommandHandler struct {
	db *sql.DB
}

func NewRejectFriendRequestCommandHandler(db *sql.DB) *RejectFriendRequestCommandHandler {
	return &RejectFriendRequestCommandHandler{db}
}

func (h *RejectFriendRequestCommandHandler) Handle(
	ctx context.Context,
	request RejectFriendRequestCommand,
) (core.Unit, error) {
	err := core.Tx(ctx, h.db, func(ctx context.Context, tx *sql.Tx) error {
		return deleteRequest(ctx, tx, request.RequesterID, request.UserID)
	})
	if err != nil {
		return core.Unit{}, err
	}

	return core.Unit{}, nil
}

func deleteRequest(ctx context.Context, tx *sql.Tx, requesterID, targetID uuid.UUID) error {
	const stmt = `
		DELETE FROM
			friend_request
		WHERE
			requester_id = $1 AND target_id = $2;`

	result, err := tql.Exec(ctx, tx, stmt, requesterID, targetID)
	if err != nil {
		return core.NewInternalError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return core.NewInternalError(err)
	}

	if affected == 0 {
		return core.NewNotFoundError(
			fmt.Errorf("request %s -> %s", requesterID, targetID), "no such incoming friend request")
	}

	return nil
}
