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

type PostChatMessageCommand struct {
	SessionID uuid.UUID `json:"-"`
	UserID    uuid.UUID `json:"-"`
	Message   string    `json:"message"`
}

func (c PostChatMessageCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	if strings.TrimSpace(c.Message) == "" {
		return fmt.Errorf("empty chat message")
	}

	return nil
}

func HandlePostChatMessage(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[PostChatMessageCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	command.SessionID, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}
	command.UserID = core.CallerIdentity(r.Context()).UserID

	if _, err = mediator.Send[PostChatMessageCommand, core.Unit](r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteNoContent(w, r)
}

type PostChatMessageCommandHandler struct {
	db *sql.DB
}

func NewPostChatMessageCommandHandler(db *sql.DB) *PostChatMessageCommandHandler {
	return &PostChatMessageCommandHandler{db}
}

func (h *PostChatMessageCommandHandler) Handle(
	ctx context.Context,
	request PostChatMessageCommand,
) (core.Unit, error) {
	err := core.Tx(ctx, h.db, func(ctx context.Context, tx *sql.Tx) error {
		roster, err := lockRoster(ctx, tx, request.SessionID)
		if err != nil {
			return mapMembershipError(err)
		}

		if !roster.IsMember(request.UserID) {
			return mapMembershipError(domain.ErrNotMember)
		}

		userID := request.UserID
		if err := insertChat(ctx, tx, request.SessionID, &userID, request.Message); err != nil {
			return core.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return core.Unit{}, err
	}

	return core.Unit{}, nil
}
