package commands

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
)

const (
	defaultAIChoiceCount = 3
	maxAIChoiceCount     = 5
)

type ProposeAIChoicesCommand struct {
	SessionID uuid.UUID `json:"-"`
	CallerID  uuid.UUID `json:"-"`
	Count     int       `json:"count"`
}

func (c ProposeAIChoicesCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if c.CallerID == uuid.Nil {
		return fmt.Errorf("invalid CallerID - '%s'", c.CallerID)
	}

	if c.Count < 1 || c.Count > maxAIChoiceCount {
		return fmt.Errorf("invalid Count - %d", c.Count)
	}

	return nil
}

func HandleProposeAIChoices(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[ProposeAIChoicesCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	command.SessionID, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}
	command.CallerID = core.CallerIdentity(r.Context()).UserID
	if command.Count == 0 {
		command.Count = defaultAIChoiceCount
	}

	choices, err := mediator.Send[ProposeAIChoicesCommand, []domain.Choice](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, choices)
}

type ProposeAIChoicesCommandHandler struct {
	db        *sql.DB
	generator story.ChoiceGenerator
}

func NewProposeAIChoicesCommandHandler(db *sql.DB, generator story.ChoiceGenerator) *ProposeAIChoicesCommandHandler {
	return &ProposeAIChoicesCommandHandler{db, generator}
}

// Handle asks the generator for continuations and puts them on the
// ballot with no proposer. Generation runs outside the session lock so
// a slow model call does not stall the session.
func (h *ProposeAIChoicesCommandHandler) Handle(
	ctx context.Context,
	request ProposeAIChoicesCommand,
) ([]domain.Choice, error) {
	if h.generator == nil {
		return nil, core.NewCommandError(
			http.StatusServiceUnavailable,
			errors.New("no choice generator configured"),
			core.WithReason("AI choice generation is not configured"),
		)
	}

	const sessionQuery = `SELECT * FROM story_session WHERE id = $1;`
	session, err := tql.QuerySingle[domain.Session](ctx, h.db, sessionQuery, request.SessionID)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return nil, core.NewNotFoundError(err, "session not found")
	case err != nil:
		return nil, core.NewInternalError(err)
	}

	contents, err := h.generator.GenerateChoices(ctx, session.NovelID, request.Count)
	if err != nil {
		return nil, core.NewCommandError(
			http.StatusBadGateway,
			err,
			core.WithReason("choice generation failed"),
		)
	}

	var choices []domain.Choice
	err = core.Tx(ctx, h.db, func(ctx context.Context, tx *sql.Tx) error {
		roster, err := lockRoster(ctx, tx, request.SessionID)
		if err != nil {
			return mapMembershipError(err)
		}

		if !roster.IsMember(request.CallerID) {
			return mapMembershipError(domain.ErrNotMember)
		}

		choices, err = insertChoices(ctx, tx, request.SessionID, nil, contents)
		if err != nil {
			return core.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return choices, nil
}
