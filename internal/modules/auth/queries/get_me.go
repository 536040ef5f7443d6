package queries

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

type GetMeQuery struct {
	UserID uuid.UUID
}

func (q GetMeQuery) Validate() error {
	if q.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", q.UserID)
	}

	return nil
}

func HandleGetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response, err := mediator.Send[GetMeQuery, domain.User](ctx, GetMeQuery{
		UserID: core.CallerIdentity(ctx).UserID,
	})
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetMeQueryHandler struct {
	db *sql.DB
}

func NewGetMeQueryHandler(db *sql.DB) *GetMeQueryHandler {
	return &GetMeQueryHandler{db}
}

func (h *GetMeQueryHandler) Handle(ctx context.Context, request GetMeQuery) (domain.User, error) {
	const query = `
		SELECT
			*
		FROM
			auth.user
		WHERE
			id = $1;`

	user, err := tql.QuerySingle[domain.User](ctx, h.db, query, request.UserID)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return domain.User{}, core.NewNotFoundError(err, "user not found")
	case err != nil:
		return domain.User{}, core.NewInternalError(err)
	}

	return user, nil
}
