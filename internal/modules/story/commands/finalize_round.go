package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/avencic/storycircle/internal/modules/core"
	"github.com/avencic/storycircle/internal/modules/novel"
	"github.com/avencic/storycircle/internal/modules/story"
	"github.com/avencic/storycircle/internal/modules/story/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type FinalizeRoundCommand struct {
	SessionID uuid.UUID `json:"-"`
	CallerID  uuid.UUID `json:"-"`
}

func (c FinalizeRoundCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if c.CallerID == uuid.Nil {
		return fmt.Errorf("invalid CallerID - '%s'", c.CallerID)
	}

	return nil
}

func HandleFinalizeRound(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}

	command := FinalizeRoundCommand{
		SessionID: sessionID,
		CallerID:  core.CallerIdentity(r.Context()).UserID,
	}

	winner, err := mediator.Send[FinalizeRoundCommand, domain.Choice](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, winner)
}

type FinalizeRoundCommandHandler struct {
	db     *sql.DB
	novels story.NovelStore
	intn   domain.Intn
}

func NewFinalizeRoundCommandHandler(db *sql.DB, novels story.NovelStore, intn domain.Intn) *FinalizeRoundCommandHandler {
	return &FinalizeRoundCommandHandler{db, novels, intn}
}

// Handle settles the current round in a single transaction: tally the
// votes, announce the winner in chat, append the winning content to the
// novel, clear the ballot, and advance the round counter. The session
// row lock serializes finalizers; whoever loses the race finds the
// votes already cleared and fails the no-votes check instead of
// appending the winner twice.
func (h *FinalizeRoundCommandHandler) Handle(
	ctx context.Context,
	request FinalizeRoundCommand,
) (domain.Choice, error) {
	var winner domain.Choice

	err := core.Tx(ctx, h.db, func(ctx context.Context, tx *sql.Tx) error {
		roster, err := lockRoster(ctx, tx, request.SessionID)
		if err != nil {
			return mapMembershipError(err)
		}

		if !roster.IsMember(request.CallerID) {
			return mapMembershipError(domain.ErrNotMember)
		}

		votes, err := loadVotes(ctx, tx, request.SessionID)
		if err != nil {
			return core.NewInternalError(err)
		}

		winnerID, voteCount, err := domain.Winner(votes, h.intn)
		if err != nil {
			return mapMembershipError(err)
		}

		const choiceQuery = `SELECT * FROM session_choice WHERE id = $1 AND session_id = $2;`
		winner, err = tql.QuerySingle[domain.Choice](ctx, tx, choiceQuery, winnerID, request.SessionID)
		if err != nil {
			return core.NewInternalError(err)
		}

		announcement := fmt.Sprintf("Choice %q selected (%d votes).", winner.Content, voteCount)
		if err := insertChat(ctx, tx, request.SessionID, nil, announcement); err != nil {
			return core.NewInternalError(err)
		}

		// The segment is attributed to whoever triggered finalization.
		callerID := request.CallerID
		_, err = h.novels.AppendSegment(ctx, tx, roster.Session.NovelID, &callerID, winner.Content)
		switch {
		case err != nil && errors.Is(err, novel.ErrNovelNotFound):
			return core.NewNotFoundError(err, "novel not found")
		case err != nil:
			return core.NewInternalError(err)
		}

		const clearVotesStmt = `DELETE FROM session_vote WHERE session_id = $1;`
		if _, err := tql.Exec(ctx, tx, clearVotesStmt, request.SessionID); err != nil {
			return core.NewInternalError(err)
		}

		const clearChoicesStmt = `DELETE FROM session_choice WHERE session_id = $1;`
		if _, err := tql.Exec(ctx, tx, clearChoicesStmt, request.SessionID); err != nil {
			return core.NewInternalError(err)
		}

		const advanceStmt = `UPDATE story_session SET round = round + 1 WHERE id = $1;`
		if _, err := tql.Exec(ctx, tx, advanceStmt, request.SessionID); err != nil {
			return core.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return domain.Choice{}, err
	}

	return winner, nil
}
