package domain

// AIProvider names a service that answers chat requests, embeds text, or
// both.
type AIProvider string

// Supported providers.
const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
)

// DefaultOllamaURL is used for local providers when no base URL is set.
const DefaultOllamaURL = "http://localhost:11434"

type providerInfo struct {
	description string
	local       bool
	chatModel   string

	// embedModel is empty when the provider has no embeddings API.
	embedModel string
}

var providers = map[AIProvider]providerInfo{
	AIProviderOllama: {
		description: "Ollama (local)",
		local:       true,
		chatModel:   "llama3.2",
		embedModel:  "nomic-embed-text",
	},
	AIProviderOpenAI: {
		description: "OpenAI (cloud)",
		chatModel:   "gpt-5-mini",
		embedModel:  "text-embedding-3-small",
	},
	AIProviderAnthropic: {
		description: "Anthropic (cloud)",
		chatModel:   "claude-3-5-haiku-latest",
	},
}

// providerOrder fixes the order used in menus.
var providerOrder = []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}

// IsValid reports whether p is a supported provider.
func (p AIProvider) IsValid() bool {
	_, ok := providers[p]
	return ok
}

// RequiresAPIKey reports whether p is a cloud provider.
func (p AIProvider) RequiresAPIKey() bool {
	info, ok := providers[p]
	return ok && !info.local
}

// IsLocal reports whether p runs on this machine.
func (p AIProvider) IsLocal() bool {
	return providers[p].local
}

func (p AIProvider) String() string {
	return string(p)
}

// Description is the menu label for p.
func (p AIProvider) Description() string {
	if info, ok := providers[p]; ok {
		return info.description
	}
	return unknownDescription
}

// AllLLMProviders returns providers that can answer chat requests.
func AllLLMProviders() []AIProvider {
	return append([]AIProvider(nil), providerOrder...)
}

// AllEmbeddingProviders returns providers with an embeddings API.
func AllEmbeddingProviders() []AIProvider {
	var out []AIProvider
	for _, p := range providerOrder {
		if providers[p].embedModel != "" {
			out = append(out, p)
		}
	}
	return out
}

// DefaultLLMModels maps each provider to its fast-tier model.
func DefaultLLMModels() map[AIProvider]string {
	out := make(map[AIProvider]string, len(providers))
	for p, info := range providers {
		out[p] = info.chatModel
	}
	return out
}

// DefaultEmbeddingModels maps each embedding provider to its model.
func DefaultEmbeddingModels() map[AIProvider]string {
	out := make(map[AIProvider]string)
	for p, info := range providers {
		if info.embedModel != "" {
			out[p] = info.embedModel
		}
	}
	return out
}

// EmbeddingDimensions gives vector sizes for known embedding models.
// Chromem collections are created with this length.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
