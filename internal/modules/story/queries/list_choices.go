package queries

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

type ListChoicesQuery struct {
	SessionID uuid.UUID
}

func HandleListChoices(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}

	choices, err := mediator.Send[ListChoicesQuery, []domain.Choice](r.Context(), ListChoicesQuery{SessionID: sessionID})
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, choices)
}

type ListChoicesQueryHandler struct {
	db *sql.DB
}

func NewListChoicesQueryHandler(db *sql.DB) *ListChoicesQueryHandler {
	return &ListChoicesQueryHandler{db}
}

func (h *ListChoicesQueryHandler) Handle(
	ctx context.Context,
	request ListChoicesQuery,
) ([]domain.Choice, error) {
	const sessionQuery = `SELECT count(id) FROM story_session WHERE id = $1;`
	count, err := tql.QuerySingle[int](ctx, h.db, sessionQuery, request.SessionID)
	if err != nil {
		return nil, core.NewInternalError(err)
	}
	if count == 0 {
		return nil, core.NewNotFoundError(fmt.Errorf("session %s", request.SessionID), "session not found")
	}

	// Proposal order. The id tiebreak keeps same-timestamp rows stable.
	const query = `
		SELECT
			*
		FROM
			session_choice
		WHERE
			session_id = $1
		ORDER BY
			created_at ASC, id ASC;`

	choices, err := tql.Query[domain.Choice](ctx, h.db, query, request.SessionID)
	if err != nil {
		return nil, core.NewInternalError(err)
	}

	return choices, nil
}
