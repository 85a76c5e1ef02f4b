package driven

import "context"

// EmbeddingService turns passages and questions into vectors for the
// chromem backend. The keyword and sqlite backends never call it.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input, in input order. The chromem
	// index embeds a whole document's passages in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length, or 0 when the model is unknown.
	Dimensions() int

	ModelName() string

	// Ping makes the cheapest request the provider offers. "settings
	// embedding" uses it to reject unreachable providers.
	Ping(ctx context.Context) error

	Close() error
}
