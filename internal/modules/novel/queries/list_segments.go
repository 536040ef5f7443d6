package queries

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/avencic/storycircle/internal/modules/core"
	"github.com/avencic/storycircle/internal/modules/novel/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type ListSegmentsQuery struct {
	NovelID uuid.UUID
}

func (q ListSegmentsQuery) Validate() error {
	if q.NovelID == uuid.Nil {
		return fmt.Errorf("invalid NovelID - '%s'", q.NovelID)
	}

	return nil
}

func HandleListSegments(w http.ResponseWriter, r *http.Request) {
	novelID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid novel id"))
		return
	}

	response, err := mediator.Send[ListSegmentsQuery, []domain.TextSegment](
		r.Context(),
		ListSegmentsQuery{NovelID: novelID},
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type ListSegmentsQueryHandler struct {
	db *sql.DB
}

func NewListSegmentsQueryHandler(db *sql.DB) *ListSegmentsQueryHandler {
	return &ListSegmentsQueryHandler{db}
}

func (h *ListSegmentsQueryHandler) Handle(
	ctx context.Context,
	request ListSegmentsQuery,
) ([]domain.TextSegment, error) {
	// Append order, not timestamp order - timestamps can skew.
	const query = `
		SELECT
			*
		FROM
			text_segment
		WHERE
			novel_id = $1
		ORDER BY
			seq ASC;`

	segments, err := tql.Query[domain.TextSegment](ctx, h.db, query, request.NovelID)
	if err != nil {
		return nil, core.NewInternalError(err)
	}

	return segments, nil
}

type ListCharactersQuery struct {
	NovelID uuid.UUID
}

func (q ListCharactersQuery) Validate() error {
	if q.NovelID == uuid.Nil {
		return fmt.Errorf("invalid NovelID - '%s'", q.NovelID)
	}

	return nil
}

func HandleListCharacters(w http.ResponseWriter, r *http.Request) {
	novelID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid novel id"))
		return
	}

	response, err := mediator.Send[ListCharactersQuery, []domain.Character](
		r.Context(),
		ListCharactersQuery{NovelID: novelID},
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type ListCharactersQueryHandler struct {
	db *sql.DB
}

func NewListCharactersQueryHandler(db *sql.DB) *ListCharactersQueryHandler {
	return &ListCharactersQueryHandler{db}
}

func (h *ListCharactersQueryHandler) Handle(
	ctx context.Context,
	request ListCharactersQuery,
) ([]domain.Character, error) {
	const query = `
		SELECT
			*
		FROM
			novel_character
		WHERE
			novel_id = $1
		ORDER BY
			name;`

	characters, err := tql.Query[domain.Character](ctx, h.db, query, request.NovelID)
	if err != nil {
		return nil, core.NewInternalError(err)
	}

	return characters, nil
}
