// Package dedupe drops chunks whose text repeats an earlier chunk, such as
// letterhead or disclaimers printed on every page of a packet.
package dedupe

import (
	"context"
	"strings"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

// Processor removes repeated chunks, keeping the first occurrence.
type Processor struct {
	minLength int
}

// New creates a dedupe processor. Chunks shorter than minLength characters
// after normalisation are always kept.
func New(minLength int) *Processor {
	if minLength < 0 {
		minLength = 0
	}
	return &Processor{minLength: minLength}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "dedupe"
}

// Process filters chunks and renumbers their positions.
func (p *Processor) Process(_ context.Context, _ *domain.ExtractedDocument, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}

	seen := make(map[string]struct{}, len(chunks))
	out := make([]domain.Chunk, 0, len(chunks))

	for _, c := range chunks {
		key := normalise(c.Content)
		if len(key) >= p.minLength {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		c.Position = len(out)
		out = append(out, c)
	}

	return out, nil
}

func normalise(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
