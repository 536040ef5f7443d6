package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/avencic/storycircle/internal/modules/core"
	"github.com/avencic/storycircle/internal/modules/story/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CastVoteCommand struct {
	SessionID uuid.UUID `json:"-"`
	VoterID   uuid.UUID `json:"-"`
	ChoiceID  uuid.UUID `json:"choice_id"`
}

func (c CastVoteCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if c.VoterID == uuid.Nil {
		return fmt.Errorf("invalid VoterID - '%s'", c.VoterID)
	}

	if c.ChoiceID == uuid.Nil {
		return fmt.Errorf("invalid ChoiceID - '%s'", c.ChoiceID)
	}

	return nil
}

func HandleCastVote(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[CastVoteCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	command.SessionID, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}
	command.VoterID = core.CallerIdentity(r.Context()).UserID

	if _, err = mediator.Send[CastVoteCommand, core.Unit](r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteNoContent(w, r)
}

type CastVoteCommandHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewCastVoteCommandHandler(db *sql.DB, logger *zap.Logger) *CastVoteCommandHandler {
	return &CastVoteCommandHandler{db, logger}
}

// Handle upserts the caller's vote for the current round. When the vote
// completes the round (every seated player has voted), finalization is
// kicked off in the background after the vote commits. The finalize
// handler re-checks everything under the session lock, so a concurrent
// manual finalize is harmless.
func (h *CastVoteCommandHandler) Handle(
	ctx context.Context,
	request CastVoteCommand,
) (core.Unit, error) {
	roundComplete := false

	err := core.Tx(ctx, h.db, func(ctx context.Context, tx *sql.Tx) error {
		roster, err := lockRoster(ctx, tx, request.SessionID)
		if err != nil {
			return mapMembershipError(err)
		}

		if !roster.IsPlayer(request.VoterID) {
			return mapMembershipError(domain.ErrNotPlayer)
		}

		const choiceQuery = `SELECT count(id) FROM session_choice WHERE id = $1 AND session_id = $2;`
		count, err := tql.QuerySingle[int](ctx, tx, choiceQuery, request.ChoiceID, request.SessionID)
		if err != nil {
			return core.NewInternalError(err)
		}
		if count == 0 {
			return mapMembershipError(domain.ErrUnknownChoice)
		}

		// Re-voting replaces the previous vote.
		const stmt = `
			INSERT INTO
				session_vote (session_id, voter_id, choice_id)
			VALUES
				($1, $2, $3)
			ON CONFLICT (session_id, voter_id) DO UPDATE SET
				choice_id = EXCLUDED.choice_id,
				cast_at   = now();`
		if _, err := tql.Exec(ctx, tx, stmt, request.SessionID, request.VoterID, request.ChoiceID); err != nil {
			return core.NewInternalError(err)
		}

		votes, err := loadVotes(ctx, tx, request.SessionID)
		if err != nil {
			return core.NewInternalError(err)
		}
		roundComplete = len(votes) == len(roster.Players)

		return nil
	})
	if err != nil {
		return core.Unit{}, err
	}

	if roundComplete {
		h.dispatchFinalize(ctx, request.SessionID, request.VoterID)
	}

	return core.Unit{}, nil
}

// dispatchFinalize runs finalization outside the request lifecycle. The
// request context dies with the response, so the dispatch carries only
// the correlation id over a fresh context.
func (h *CastVoteCommandHandler) dispatchFinalize(ctx context.Context, sessionID, callerID uuid.UUID) {
	background := context.Background()
	if correlationID, ok := ctx.Value(core.CorrelationIDContextKey).(string); ok {
		background = context.WithValue(background, core.CorrelationIDContextKey, correlationID)
	}

	go func() {
		command := FinalizeRoundCommand{SessionID: sessionID, CallerID: callerID}
		if _, err := mediator.Send[FinalizeRoundCommand, domain.Choice](background, command); err != nil {
			h.logger.Warn(
				"background round finalization failed",
				zap.String("session_id", sessionID.String()),
				zap.Error(err),
			)
		}
	}()
}
