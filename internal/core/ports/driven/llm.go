package driven

import "context"

// LLMService is the chat model behind answers and memos. One service serves
// both tiers: the query engine passes the thorough model in ChatOptions.Model.
type LLMService interface {
	// Chat sends the messages and returns the reply text. Providers
	// without a system role receive system messages some other way.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName is the model used when ChatOptions.Model is empty.
	ModelName() string

	// Ping checks credentials and reachability without running inference.
	Ping(ctx context.Context) error

	Close() error
}

// ChatMessage is one turn; Role is "system", "user" or "assistant".
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tunes one Chat call. Zero values leave provider defaults.
type ChatOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64

	// Stop ends generation at any of these sequences.
	Stop []string
}
