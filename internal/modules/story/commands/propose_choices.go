package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/avencic/storycircle/internal/modules/core"
	"github.com/avencic/storycircle/internal/modules/story/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type ProposeChoicesCommand struct {
	SessionID  uuid.UUID  `json:"-"`
	ProposerID *uuid.UUID `json:"-"`
	Contents   []string   `json:"contents"`
}

func (c ProposeChoicesCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if len(c.Contents) == 0 {
		return fmt.Errorf("no choice contents provided")
	}

	for _, content := range c.Contents {
		if strings.TrimSpace(content) == "" {
			return fmt.Errorf("empty choice content")
		}
	}

	return nil
}

func HandleProposeChoices(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[ProposeChoicesCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	command.SessionID, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}
	proposerID := core.CallerIdentity(r.Context()).UserID
	command.ProposerID = &proposerID

	choices, err := mediator.Send[ProposeChoicesCommand, []domain.Choice](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, choices)
}

type ProposeChoicesCommandHandler struct {
	db *sql.DB
}

func NewProposeChoicesCommandHandler(db *sql.DB) *ProposeChoicesCommandHandler {
	return &ProposeChoicesCommandHandler{db}
}

// Handle appends the whole batch to the current ballot, or none of it.
func (h *ProposeChoicesCommandHandler) Handle(
	ctx context.Context,
	request ProposeChoicesCommand,
) ([]domain.Choice, error) {
	var choices []domain.Choice

	err := core.Tx(ctx, h.db, func(ctx context.Context, tx *sql.Tx) error {
		roster, err := lockRoster(ctx, tx, request.SessionID)
		if err != nil {
			return mapMembershipError(err)
		}

		if request.ProposerID != nil && !roster.IsMember(*request.ProposerID) {
			return mapMembershipError(domain.ErrNotMember)
		}

		choices, err = insertChoices(ctx, tx, request.SessionID, request.ProposerID, request.Contents)
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
