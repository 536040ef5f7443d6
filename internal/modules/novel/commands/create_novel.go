package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/avencic/storycircle/internal/modules/core"
	"github.com/avencic/storycircle/internal/modules/novel/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type CreateNovelCommand struct {
	AuthorID    uuid.UUID `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Setting     string    `json:"setting"`
	Genres      []string  `json:"genres"`
	IsPublic    bool      `json:"is_public"`
}

func (c CreateNovelCommand) Validate() error {
	if c.AuthorID == uuid.Nil {
		return fmt.Errorf("invalid AuthorID - '%s'", c.AuthorID)
	}

	if c.Title == "" {
		return fmt.Errorf("invalid Title - '%s'", c.Title)
	}

	if len(c.Genres) == 0 {
		return fmt.Errorf("at least one genre is required")
	}

	return domain.ValidateGenres(c.Genres)
}

func HandleCreateNovel(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[CreateNovelCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.AuthorID = core.CallerIdentity(r.Context()).UserID

	response, err := mediator.Send[CreateNovelCommand, domain.Novel](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	location := path.Join(r.Host, "novels", response.ID.String())
	core.WriteCreated(w, r, location, response)
}

type CreateNovelCommandHandler struct {
	db *sql.DB
}

func NewCreateNovelCommandHandler(db *sql.DB) *CreateNovelCommandHandler {
	return &CreateNovelCommandHandler{db}
}

func (h *CreateNovelCommandHandler) Handle(
	ctx context.Context,
	request CreateNovelCommand,
) (domain.Novel, error) {
	now := time.Now().UTC()

	novel := domain.Novel{
		ID:          uuid.New(),
		AuthorID:    request.AuthorID,
		Title:       request.Title,
		Description: request.Description,
		Setting:     request.Setting,
		Genres:      pq.StringArray(request.Genres),
		IsPublic:    request.IsPublic,
		State:       domain.StatePlanned,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	const stmt = `
		INSERT INTO
			novel (id, author_id, title, description, setting, genres, is_public, state, created_at, updated_at)
		VALUES
			(:id, :author_id, :title, :description, :setting, :genres, :is_public, :state, :created_at, :updated_at);`
	if _, err := tql.Exec(ctx, h.db, stmt, novel); err != nil {
		return domain.Novel{}, core.NewInternalError(err)
	}

	return novel, nil
}
