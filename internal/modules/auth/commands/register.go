package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/avencic/storycircle/internal/modules/auth/domain"
	"github.com/avencic/storycircle/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
)

type RegisterCommand struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (c RegisterCommand) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("invalid Username: '%s'", c.Username)
	}

	if c.Password == "" {
		return fmt.Errorf("invalid Password")
	}

	if _, err := mail.ParseAddress(c.Email); err != nil {
		return fmt.Errorf("invalid Email: '%s'", c.Email)
	}

	return nil
}

func HandleRegistration(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[RegisterCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	if _, err = mediator.Send[RegisterCommand, core.Unit](r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

type RegisterCommandHandler struct {
	db             *sql.DB
	passwordHasher domain.PasswordHasher
}

func NewRegisterCommandHandler(db *sql.DB, passwordHasher domain.PasswordHasher) *RegisterCommandHandler {
	return &RegisterCommandHandler{db, passwordHasher}
}

func (h *RegisterCommandHandler) Handle(ctx context.Context, request RegisterCommand) (core.Unit, error) {
	const existingUserQuery = `
		SELECT
			count(id)
		FROM
			auth.user
		WHERE
			username = $1 OR email = $2;`

	count, err := tql.QuerySingle[int](ctx, h.db, existingUserQuery, request.Username, request.Email)
	if err != nil {
		return core.Unit{}, core.NewInternalError(err)
	}

	if count > 0 {
		return core.Unit{}, core.NewConflictError(
			fmt.Errorf("username or email taken"), "username or email already in use")
	}

	user, err := domain.RegisterUser(request.Username, request.Email, request.Password, h.passwordHasher)
	if err != nil {
		return core.Unit{}, core.NewInvalidArgumentError(err, "user registration failed")
	}

	const stmt = `
		INSERT INTO
			auth.user (id, security_stamp, username, email, password_hash, created_at)
		VALUES
			(:id, :security_stamp, :username, :email, :password_hash, :created_at);`

	if _, err := tql.Exec(ctx, h.db, stmt, user); err != nil {
		return core.Unit{}, core.NewInternalError(err)
	}

	return core.Unit{}, nil
}
