package driving

import (
	"context"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

// Session is one analysis session: a corpus plus its conversation.
type Session interface {
	// ID returns the session identifier.
	ID() string

	// Corpus returns the session's corpus manager.
	Corpus() CorpusManager

	// Ask records the question, answers it against the ready corpus and
	// records the answer. When the corpus is not ready the failure is
	// recorded as a system turn and returned.
	Ask(ctx context.Context, question string) (domain.ConversationTurn, error)

	// History returns the transcript in order.
	History(ctx context.Context) ([]domain.ConversationTurn, error)

	// GenerateMemo runs the memo synthesizer against the ready corpus.
	GenerateMemo(ctx context.Context) (*domain.InvestmentMemo, error)

	// IsStale reports whether the corpus has changed since version.
	IsStale(version int) bool
}

// SessionManager creates and tracks isolated sessions.
type SessionManager interface {
	// Create starts a new session with an empty corpus.
	Create(ctx context.Context) (Session, error)

	// Get returns an open session or domain.ErrSessionNotFound.
	Get(id string) (Session, error)

	// List returns the IDs of open sessions.
	List() []string

	// Close ends a session and releases its corpus.
	Close(ctx context.Context, id string) error

	// CloseAll ends every open session.
	CloseAll(ctx context.Context) error
}
