package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/avencic/storycircle/internal/modules/auth/domain"
	"github.com/avencic/storycircle/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

const SessionCookieName = "storycircle-session"

type LoginCommand struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c LoginCommand) Validate() error {
	if c.Email == "" {
		return fmt.Errorf("invalid email: '%s'", c.Email)
	}

	if c.Password == "" {
		return fmt.Errorf("invalid password")
	}

	return nil
}

type LoginResponse struct {
	SessionID uuid.UUID `json:"-"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
}

func HandleLogin(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[LoginCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	response, err := mediator.Send[LoginCommand, LoginResponse](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    response.SessionID.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	core.WriteOK(w, r, response)
}

func HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: SessionCookieName, Path: "/", MaxAge: -1})
	core.WriteOK(w, r, nil)
}

type LoginCommandHandler struct {
	db             *sql.DB
	passwordHasher domain.PasswordHasher
}

func NewLoginCommandHandler(db *sql.DB, passwordHasher domain.PasswordHasher) *LoginCommandHandler {
	return &LoginCommandHandler{db, passwordHasher}
}

func (h *LoginCommandHandler) Handle(ctx context.Context, request LoginCommand) (LoginResponse, error) {
	const userQuery = `
		SELECT
			*
		FROM
			auth.user
		WHERE
			email = $1;`

	user, err := tql.QuerySingle[domain.User](ctx, h.db, userQuery, request.Email)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return LoginResponse{}, core.NewCommandError(
			http.StatusUnauthorized, err, core.WithReason("invalid credentials"))
	case err != nil:
		return LoginResponse{}, core.NewInternalError(err)
	}

	authErr := user.Authenticate(request.Password, h.passwordHasher)

	// Lockout counters change on both success and failure.
	const updateStmt = `
		UPDATE
			auth.user
		SET
			security_stamp = :security_stamp,
			locked = :locked,
			unsuccessful_login_attempts = :unsuccessful_login_attempts,
			last_login = :last_login
		WHERE
			id = :id;`
	if _, err := tql.Exec(ctx, h.db, updateStmt, user); err != nil {
		return LoginResponse{}, core.NewInternalError(err)
	}

	if authErr != nil {
		return LoginResponse{}, core.NewCommandError(
			http.StatusUnauthorized, authErr, core.WithReason("invalid credentials"))
	}

	session := domain.NewSession(user.ID)

	const sessionStmt = `
		INSERT INTO
			auth.session (id, user_id, created_at, expires_at)
		VALUES
			(:id, :user_id, :created_at, :expires_at);`
	if _, err := tql.Exec(ctx, h.db, sessionStmt, session); err != nil {
		return LoginResponse{}, core.NewInternalError(err)
	}

	return LoginResponse{
		SessionID: session.ID,
		UserID:    user.ID,
		Username:  user.Username,
	}, nil
}
