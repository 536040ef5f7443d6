package story

import (
	"context"

	"github.com/avencic/storycircle/internal/modules/core"

	"github.com/google/uuid"
)

// NovelStore is the slice of the novel module the session engine needs.
// Methods take a core.Querier so appends run inside the caller's
// transaction.
type NovelStore interface {
	Exists(ctx context.Context, q core.Querier, novelID uuid.UUID) (bool, error)
	AppendSegment(ctx context.Context, q core.Querier, novelID uuid.UUID, authorID *uuid.UUID, content string) (uuid.UUID, error)
}

// FriendsDirectory exposes the caller's friend list for invite suggestions.
type FriendsDirectory interface {
	ListFriendIDs(ctx context.Context, q core.Querier, userID uuid.UUID) ([]uuid.UUID, error)
}

// ChoiceGenerator produces narrative continuations for a novel.
type ChoiceGenerator interface {
	GenerateChoices(ctx context.Context, novelID uuid.UUID, count int) ([]string, error)
}
