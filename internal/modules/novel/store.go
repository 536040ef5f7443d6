package novel

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/avencic/storycircle/internal/modules/core"
	"github.com/avencic/storycircle/internal/modules/novel/domain"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

var ErrNovelNotFound = errors.New("novel not found")

// Store is the narrow novel-text surface other slices consume. Methods
// take a core.Querier so the story slice can run the append inside its
// own finalize transaction.
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Exists(ctx context.Context, q core.Querier, novelID uuid.UUID) (bool, error) {
	const query = `SELECT count(id) FROM novel WHERE id = $1;`

	count, err := tql.QuerySingle[int](ctx, q, query, novelID)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// AppendSegment appends one segment to the novel's ordered text log and
// advances the novel's current position. Returns ErrNovelNotFound if
// the novel id does not resolve.
func (s *Store) AppendSegment(
	ctx context.Context,
	q core.Querier,
	novelID uuid.UUID,
	authorID *uuid.UUID,
	content string,
) (uuid.UUID, error) {
	exists, err := s.Exists(ctx, q, novelID)
	if err != nil {
		return uuid.Nil, err
	}
	if !exists {
		return uuid.Nil, ErrNovelNotFound
	}

	segment := domain.TextSegment{
		ID:        uuid.New(),
		NovelID:   novelID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	const stmt = `
		INSERT INTO
			text_segment (id, novel_id, author_id, content, created_at)
		VALUES
			($1, $2, $3, $4, $5);`
	if _, err := tql.Exec(ctx, q, stmt, segment.ID, segment.NovelID, segment.AuthorID, segment.Content, segment.CreatedAt); err != nil {
		return uuid.Nil, err
	}

	const novelStmt = `
		UPDATE
			novel
		SET
			current_position = $2,
			state = $3,
			updated_at = $4
		WHERE
			id = $1;`
	if _, err := tql.Exec(ctx, q, novelStmt, novelID, segment.ID, domain.StateInProgress, segment.CreatedAt); err != nil {
		return uuid.Nil, err
	}

	return segment.ID, nil
}

// RecentSegments returns up to limit segments in append order, newest
// last. Used to build AI continuation context.
func (s *Store) RecentSegments(ctx context.Context, q core.Querier, novelID uuid.UUID, limit int) ([]string, error) {
	const query = `
		SELECT
			content
		FROM (
			SELECT
				content, seq
			FROM
				text_segment
			WHERE
				novel_id = $1
			ORDER BY
				seq DESC
			LIMIT $2
		) recent
		ORDER BY
			seq ASC;`

	return tql.Query[string](ctx, q, query, novelID, limit)
}

func (s *Store) Get(ctx context.Context, q core.Querier, novelID uuid.UUID) (domain.Novel, error) {
	const query = `SELECT * FROM novel WHERE id = $1;`

	novel, err := tql.QuerySingle[domain.Novel](ctx, q, query, novelID)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return domain.Novel{}, ErrNovelNotFound
	case err != nil:
		return domain.Novel{}, err
	}

	return novel, nil
}
