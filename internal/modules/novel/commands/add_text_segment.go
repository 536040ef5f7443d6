package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/avencic/storycircle/internal/modules/core"
	novelstore "github.com/avencic/storycircle/internal/modules/novel"

	"github.com/eskrenkovic/mediator-go"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type AddTextSegmentCommand struct {
	NovelID  uuid.UUID `json:"-"`
	AuthorID uuid.UUID `json:"-"`
	Content  string    `json:"content"`
}

func (c AddTextSegmentCommand) Validate() error {
	if c.NovelID == uuid.Nil {
		return fmt.Errorf("invalid NovelID - '%s'", c.NovelID)
	}

	if c.AuthorID == uuid.Nil {
		return fmt.Errorf("invalid AuthorID - '%s'", c.AuthorID)
	}

	if c.Content == "" {
		return fmt.Errorf("invalid Content - empty")
	}

	return nil
}

type AddTextSegmentResponse struct {
	SegmentID uuid.UUID `json:"segment_id"`
}

func HandleAddTextSegment(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[AddTextSegmentCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	novelID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid novel id"))
		return
	}

	command.NovelID = novelID
	command.AuthorID = core.CallerIdentity(r.Context()).UserID

	response, err := mediator.Send[AddTextSegmentCommand, AddTextSegmentResponse](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	location := path.Join(r.Host, "novels", novelID.String(), "text", "segments", response.SegmentID.String())
	core.WriteCreated(w, r, location, response)
}

type AddTextSegmentCommandHandler struct {
	db    *sql.DB
	store *novelstore.Store
}

func NewAddTextSegmentCommandHandler(db *sql.DB, store *novelstore.Store) *AddTextSegmentCommandHandler {
	return &AddTextSegmentCommandHandler{db, store}
}

func (h *AddTextSegmentCommandHandler) Handle(
	ctx context.Context,
	request AddTextSegmentCommand,
) (AddTextSegmentResponse, error) {
	var segmentID uuid.UUID

	err := core.Tx(ctx, h.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		segmentID, err = h.store.AppendSegment(ctx, tx, request.NovelID, &request.AuthorID, request.Content)
		return err
	})
	switch {
	case err != nil && errors.Is(err, novelstore.ErrNovelNotFound):
		return AddTextSegmentResponse{}, core.NewNotFoundError(err, "novel not found")
	case err != nil:
		return AddTextSegmentResponse{}, core.NewInternalError(err)
	}

	return AddTextSegmentResponse{SegmentID: segmentID}, nil
}
