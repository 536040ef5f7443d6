package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avencic/storycircle/internal/modules/core"
	"github.com/avencic/storycircle/internal/modules/novel/domain"
	novelstore "github.com/avencic/storycircle/internal/modules/novel"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type UpdateNovelCommand struct {
	NovelID     uuid.UUID `json:"-"`
	CallerID    uuid.UUID `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Setting     string    `json:"setting"`
	Genres      []string  `json:"genres"`
	IsPublic    bool      `json:"is_public"`
}

func (c UpdateNovelCommand) Validate() error {
	if c.NovelID == uuid.Nil {
		return fmt.Errorf("invalid NovelID - '%s'", c.NovelID)
	}

	if c.CallerID == uuid.Nil {
		return fmt.Errorf("invalid CallerID - '%s'", c.CallerID)
	}

	if c.Title == "" {
		return fmt.Errorf("invalid Title - '%s'", c.Title)
	}

	if len(c.Genres) == 0 {
		return fmt.Errorf("at least one genre is required")
	}

	return domain.ValidateGenres(c.Genres)
}

func HandleUpdateNovel(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[UpdateNovelCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	command.NovelID, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid novel id"))
		return
	}
	command.CallerID = core.CallerIdentity(r.Context()).UserID

	response, err := mediator.Send[UpdateNovelCommand, domain.Novel](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type UpdateNovelCommandHandler struct {
	db    *sql.DB
	store *novelstore.Store
}

func NewUpdateNovelCommandHandler(db *sql.DB, store *novelstore.Store) *UpdateNovelCommandHandler {
	return &UpdateNovelCommandHandler{db, store}
}

// Handle rewrites the novel's metadata. Only the author can do it.
func (h *UpdateNovelCommandHandler) Handle(
	ctx context.Context,
	request UpdateNovelCommand,
) (domain.Novel, error) {
	var updated domain.Novel

	err := core.Tx(ctx, h.db, func(ctx context.Context, tx *sql.Tx) error {
		novel, err := h.store.Get(ctx, tx, request.NovelID)
		switch {
		case err != nil && errors.Is(err, novelstore.ErrNovelNotFound):
			return core.NewNotFoundError(err, "novel not found")
		case err != nil:
			return core.NewInternalError(err)
		}

		if novel.AuthorID != request.CallerID {
			return core.NewForbiddenError(
				fmt.Errorf("user %s is not the author of novel %s", request.CallerID, request.NovelID),
				"only the author can update the novel")
		}

		const stmt = `
			UPDATE
				novel
			SET
				title = $2,
				description = $3,
				setting = $4,
				genres = $5,
				is_public = $6,
				updated_at = $7
			WHERE
				id = $1;`
		if _, err := tql.Exec(
			ctx,
			tx,
			stmt,
			request.NovelID,
			request.Title,
			request.Description,
			request.Setting,
			pq.StringArray(request.Genres),
			request.IsPublic,
			time.Now().UTC(),
		); err != nil {
			return core.NewInternalError(err)
		}

		updated, err = h.store.Get(ctx, tx, request.NovelID)
		if err != nil {
			return core.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return domain.Novel{}, err
	}

	return updated, nil
}
