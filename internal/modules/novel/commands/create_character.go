package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"path"

	"github.com/avencic/storycircle/internal/modules/core"
	novelstore "github.com/avencic/storycircle/internal/modules/novel"
	"github.com/avencic/storycircle/internal/modules/novel/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type CreateCharacterCommand struct {
	NovelID    uuid.UUID `json:"-"`
	UserID     uuid.UUID `json:"-"`
	Role       string    `json:"role"`
	Name       string    `json:"name"`
	Appearance string    `json:"appearance"`
	Backstory  string    `json:"backstory"`
	Traits     string    `json:"traits"`
}

func (c CreateCharacterCommand) Validate() error {
	if c.NovelID == uuid.Nil {
		return fmt.Errorf("invalid NovelID - '%s'", c.NovelID)
	}

	if c.Name == "" {
		return fmt.Errorf("invalid Name - '%s'", c.Name)
	}

	if c.Role != domain.CharacterRolePlayer && c.Role != domain.CharacterRoleNPC {
		return fmt.Errorf("invalid Role - '%s'", c.Role)
	}

	return nil
}

func HandleCreateCharacter(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[CreateCharacterCommand](r)
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
	command.UserID = core.CallerIdentity(r.Context()).UserID

	response, err := mediator.Send[CreateCharacterCommand, domain.Character](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	location := path.Join(r.Host, "novels", novelID.String(), "characters", response.ID.String())
	core.WriteCreated(w, r, location, response)
}

type CreateCharacterCommandHandler struct {
	db    *sql.DB
	store *novelstore.Store
}

func NewCreateCharacterCommandHandler(db *sql.DB, store *novelstore.Store) *CreateCharacterCommandHandler {
	return &CreateCharacterCommandHandler{db, store}
}

func (h *CreateCharacterCommandHandler) Handle(
	ctx context.Context,
	request CreateCharacterCommand,
) (domain.Character, error) {
	exists, err := h.store.Exists(ctx, h.db, request.NovelID)
	if err != nil {
		return domain.Character{}, core.NewInternalError(err)
	}
	if !exists {
		return domain.Character{}, core.NewNotFoundError(novelstore.ErrNovelNotFound, "novel not found")
	}

	character := domain.Character{
		ID:         uuid.New(),
		NovelID:    request.NovelID,
		Role:       request.Role,
		Name:       request.Name,
		Appearance: request.Appearance,
		Backstory:  request.Backstory,
		Traits:     request.Traits,
	}

	// NPCs belong to the novel, player characters to their creator.
	if request.Role == domain.CharacterRolePlayer {
		character.UserID = &request.UserID
	}

	const stmt = `
		INSERT INTO
			novel_character (id, novel_id, user_id, role, name, appearance, backstory, traits)
		VALUES
			(:id, :novel_id, :user_id, :role, :name, :appearance, :backstory, :traits);`
	if _, err := tql.Exec(ctx, h.db, stmt, character); err != nil {
		return domain.Character{}, core.NewInternalError(err)
	}

	return character, nil
}
