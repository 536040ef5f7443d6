package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/avencic/storycircle/internal/modules/auth/commands"
	"github.com/avencic/storycircle/internal/modules/auth/domain"
	"github.com/avencic/storycircle/internal/modules/core"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

// AuthenticationMiddleware resolves the session cookie to a caller
// identity and rejects the request with 401 otherwise. Downstream
// handlers read the identity through core.CallerIdentity.
func AuthenticationMiddleware(db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(commands.SessionCookieName)
			if err != nil {
				core.WriteUnauthorized(w, r, nil)
				return
			}

			sessionID, err := uuid.Parse(cookie.Value)
			if err != nil {
				core.WriteUnauthorized(w, r, nil)
				return
			}

			const q = `
				SELECT
					*
				FROM
					auth.session
				WHERE
					id = $1;`

			session, err := tql.QuerySingle[domain.Session](r.Context(), db, q, sessionID)
			switch {
			case err != nil && errors.Is(err, sql.ErrNoRows):
				core.WriteUnauthorized(w, r, nil)
				return
			case err != nil:
				core.WriteInternalServerError(w, r, nil)
				return
			}

			if err := session.Validate(); err != nil {
				core.WriteUnauthorized(w, r, nil)
				return
			}

			const userQuery = `
				SELECT
					username
				FROM
					auth.user
				WHERE
					id = $1;`

			username, err := tql.QuerySingle[string](r.Context(), db, userQuery, session.UserID)
			if err != nil {
				core.WriteInternalServerError(w, r, nil)
				return
			}

			identity := core.Identity{UserID: session.UserID, Username: username}
			authCtx := context.WithValue(r.Context(), core.IdentityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(authCtx))
		})
	}
}
