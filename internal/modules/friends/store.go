package friends

import (
	"context"

	"github.com/avencic/storycircle/internal/modules/core"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

// Store is the narrow surface other slices consume. The story slice
// uses it to populate "who can I invite" views.
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) ListFriendIDs(ctx context.Context, q core.Querier, userID uuid.UUID) ([]uuid.UUID, error) {
	const query = `
		SELECT
			friend_id
		FROM
			friendship
		WHERE
			user_id = $1;`

	return tql.Query[uuid.UUID](ctx, q, query, userID)
}
