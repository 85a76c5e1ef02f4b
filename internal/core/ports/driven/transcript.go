package driven

import (
	"context"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

// TranscriptStore persists conversation turns for a session's lifetime.
// Turns are append-only: implementations never update or delete a single turn.
type TranscriptStore interface {
	// Append adds a turn to the end of the session transcript.
	Append(ctx context.Context, sessionID string, turn domain.ConversationTurn) error

	// List returns the session transcript ordered by Seq.
	List(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error)

	// Drop removes a closed session's transcript.
	Drop(ctx context.Context, sessionID string) error
}
