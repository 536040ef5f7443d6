package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"path"

	"github.com/avencic/storycircle/internal/modules/core"
	"github.com/avencic/storycircle/internal/modules/story"
	"github.com/avencic/storycircle/internal/modules/story/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type CreateSessionCommand struct {
	HostID  uuid.UUID `json:"-"`
	NovelID uuid.UUID `json:"novel_id"`
}

func (c CreateSessionCommand) Validate() error {
	if c.HostID == uuid.Nil {
		return fmt.Errorf("invalid HostID - '%s'", c.HostID)
	}

	if c.NovelID == uuid.Nil {
		return fmt.Errorf("invalid NovelID - '%s'", c.NovelID)
	}

	return nil
}

func HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[CreateSessionCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.HostID = core.CallerIdentity(r.Context()).UserID

	state, err := mediator.Send[CreateSessionCommand, domain.State](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	location := path.Join(r.Host, "sessions", state.ID.String())
	core.WriteCreated(w, r, location, state)
}

type CreateSessionCommandHandler struct {
	db     *sql.DB
	novels story.NovelStore
}

func NewCreateSessionCommandHandler(db *sql.DB, novels story.NovelStore) *CreateSessionCommandHandler {
	return &CreateSessionCommandHandler{db, novels}
}

// Handle creates the session and seats the host as the first player in
// the same transaction.
func (h *CreateSessionCommandHandler) Handle(
	ctx context.Context,
	request CreateSessionCommand,
) (domain.State, error) {
	var state domain.State

	err := core.Tx(ctx, h.db, func(ctx context.Context, tx *sql.Tx) error {
		exists, err := h.novels.Exists(ctx, tx, request.NovelID)
		if err != nil {
			return core.NewInternalError(err)
		}
		if !exists {
			return core.NewNotFoundError(fmt.Errorf("novel %s", request.NovelID), "novel not found")
		}

		session := domain.NewSession(request.HostID, request.NovelID)

		const sessionStmt = `
			INSERT INTO
				story_session (id, host_id, novel_id, round, started_at)
			VALUES
				($1, $2, $3, $4, $5);`
		if _, err := tql.Exec(ctx, tx, sessionStmt, session.ID, session.HostID, session.NovelID, session.Round, session.StartedAt); err != nil {
			return core.NewInternalError(err)
		}

		const playerStmt = `
			INSERT INTO
				session_player (session_id, user_id)
			VALUES
				($1, $2);`
		if _, err := tql.Exec(ctx, tx, playerStmt, session.ID, session.HostID); err != nil {
			return core.NewInternalError(err)
		}

		roster, err := lockRoster(ctx, tx, session.ID)
		if err != nil {
			return core.NewInternalError(err)
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
