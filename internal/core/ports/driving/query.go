package driving

import (
	"context"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

// QueryEngine answers a single question from a ready corpus.
type QueryEngine interface {
	// Ask retrieves passages and generates an answer citing only them.
	// When retrieval finds no relevant passage the answer is Ungrounded and
	// carries no citations.
	Ask(ctx context.Context, corpus domain.CorpusHandle, question string, opts domain.AskOptions) (*domain.GroundedAnswer, error)
}
