package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/avencic/storycircle/internal/modules/core"
	novelstore "github.com/avencic/storycircle/internal/modules/novel"
	"github.com/avencic/storycircle/internal/modules/novel/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type GetNovelQuery struct {
	NovelID uuid.UUID
}

func (q GetNovelQuery) Validate() error {
	if q.NovelID == uuid.Nil {
		return fmt.Errorf("invalid NovelID - '%s'", q.NovelID)
	}

	return nil
}

func HandleGetNovel(w http.ResponseWriter, r *http.Request) {
	novelID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid novel id"))
		return
	}

	response, err := mediator.Send[GetNovelQuery, domain.Novel](r.Context(), GetNovelQuery{NovelID: novelID})
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetNovelQueryHandler struct {
	db    *sql.DB
	store *novelstore.Store
}

func NewGetNovelQueryHandler(db *sql.DB, store *novelstore.Store) *GetNovelQueryHandler {
	return &GetNovelQueryHandler{db, store}
}

func (h *GetNovelQueryHandler) Handle(ctx context.Context, request GetNovelQuery) (domain.Novel, error) {
	novel, err := h.store.Get(ctx, h.db, request.NovelID)
	switch {
	case err != nil && errors.Is(err, novelstore.ErrNovelNotFound):
		return domain.Novel{}, core.NewNotFoundError(err, "novel not found")
	case err != nil:
		return domain.Novel{}, core.NewInternalError(err)
	}

	return novel, nil
}

type ListPublicNovelsQuery struct{}

func HandleListPublicNovels(w http.ResponseWriter, r *http.Request) {
	response, err := mediator.Send[ListPublicNovelsQuery, []domain.Novel](r.Context(), ListPublicNovelsQuery{})
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type ListPublicNovelsQueryHandler struct {
	db *sql.DB
}

func NewListPublicNovelsQueryHandler(db *sql.DB) *ListPublicNovelsQueryHandler {
	return &ListPublicNovelsQueryHandler{db}
}

func (h *ListPublicNovelsQueryHandler) Handle(
	ctx context.Context,
	_ ListPublicNovelsQuery,
) ([]domain.Novel, error) {
	const query = `
		SELECT
			*
		FROM
			novel
		WHERE
			is_public = true
		ORDER BY
			updated_at DESC;`

	novels, err := tql.Query[domain.Novel](ctx, h.db, query)
	if err != nil {
		return nil, core.NewInternalError(err)
	}

	return novels, nil
}
