package driving

import (
	"context"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

// MemoSynthesizer produces the investor memo for a ready corpus.
type MemoSynthesizer interface {
	// Run asks every memo question, classifies each answer and aggregates
	// the labels into a verdict.
	Run(ctx context.Context, corpus domain.CorpusHandle) (*domain.InvestmentMemo, error)
}
