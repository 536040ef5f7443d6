package queries

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/avencic/storycircle/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type ListFriendsQuery struct {
	UserID uuid.UUID
}

func (q ListFriendsQuery) Validate() error {
	if q.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", q.UserID)
	}

	return nil
}

type Friend struct {
	UserID   uuid.UUID `db:"user_id" json:"user_id"`
	Username string    `db:"username" json:"username"`
}

func HandleListFriends(w http.ResponseWriter, r *http.Request) {
	response, err := mediator.Send[ListFriendsQuery, []Friend](r.Context(), ListFriendsQuery{
		UserID: core.CallerIdentity(r.Context()).UserID,
	})
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type ListFriendsQueryHandler struct {
	db *sql.DB
}

func NewListFriendsQueryHandler(db *sql.DB) *ListFriendsQueryHandler {
	return &ListFriendsQueryHandler{db}
}

func (h *ListFriendsQueryHandler) Handle(ctx context.Context, request ListFriendsQuery) ([]Friend, error) {
	const query = `
		SELECT
			f.friend_id AS user_id,
			u.username
		FROM
			friendship f
		INNER JOIN
			auth.user u ON u.id = f.friend_id
		WHERE
			f.user_id = $1
		ORDER BY
			u.username;`

	friends, err := tql.Query[Friend](ctx, h.db, query, request.UserID)
	if err != nil {
		return nil, core.NewInternalError(err)
	}

	return friends, nil
}
