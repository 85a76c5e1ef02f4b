package domain

import "time"

const unknownDescription = "Unknown"

// LLMSettings configures the model that answers questions and writes
// memo sections.
type LLMSettings struct {
	Provider AIProvider

	// Model serves the fast tier.
	Model string

	// ThoroughModel serves the thorough tier. Empty falls back to Model.
	ThoroughModel string

	// BaseURL overrides the provider endpoint. Ollama needs it.
	BaseURL string
	APIKey  string

	// Tier is used for chat questions that do not ask for one.
	Tier ModelTier
}

// IsConfigured reports whether the provider is known and has the key it
// needs.
func (l LLMSettings) IsConfigured() bool {
	return configured(l.Provider, l.APIKey)
}

// ModelFor returns the model serving tier.
func (l LLMSettings) ModelFor(tier ModelTier) string {
	if tier == TierThorough && l.ThoroughModel != "" {
		return l.ThoroughModel
	}
	return l.Model
}

// EmbeddingSettings configures the embedder used by the chromem backend.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured reports whether the provider is known and has the key it
// needs.
func (e EmbeddingSettings) IsConfigured() bool {
	return configured(e.Provider, e.APIKey)
}

func configured(p AIProvider, apiKey string) bool {
	return p.IsValid() && (!p.RequiresAPIKey() || apiKey != "")
}

// IndexSettings configures retrieval.
type IndexSettings struct {
	Backend IndexBackend

	// TopK passages are retrieved per question.
	TopK int

	// RelevanceFloor drops passages scoring below it.
	RelevanceFloor float64

	// MaxRetries applies to transient index failures. Zero disables retries.
	MaxRetries int

	// RequestsPerSecond throttles index calls. Zero means unlimited.
	RequestsPerSecond float64

	// DataDir holds session-lifetime files for on-disk backends.
	DataDir string
}

// TimeoutSettings bounds each blocking external call.
type TimeoutSettings struct {
	Index    time.Duration
	Search   time.Duration
	Generate time.Duration
}

// MemoSettings configures memo synthesis.
type MemoSettings struct {
	Tier ModelTier
}

// AppSettings is the full configuration.
type AppSettings struct {
	LLM        LLMSettings
	Embedding  EmbeddingSettings
	Index      IndexSettings
	Timeouts   TimeoutSettings
	Memo       MemoSettings
	Transcript TranscriptBackend
	Pipeline   PipelineConfig
}

// OpenAIKey finds an OpenAI key in the LLM or embedding settings, for the
// hosted vector store backend.
func (s AppSettings) OpenAIKey() string {
	switch {
	case s.LLM.Provider == AIProviderOpenAI && s.LLM.APIKey != "":
		return s.LLM.APIKey
	case s.Embedding.Provider == AIProviderOpenAI:
		return s.Embedding.APIKey
	}
	return ""
}

// DefaultAppSettings returns the configuration used before anything is
// set. OpenAI is preselected but unconfigured until a key is supplied;
// embeddings stay unset since only chromem needs them.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Provider:      AIProviderOpenAI,
			Model:         "gpt-5-mini",
			ThoroughModel: "gpt-5-pro",
			Tier:          TierFast,
		},
		Index: IndexSettings{
			Backend:        IndexBackendMemory,
			TopK:           8,
			RelevanceFloor: 0.2,
		},
		Timeouts: TimeoutSettings{
			Index:    5 * time.Minute,
			Search:   30 * time.Second,
			Generate: 3 * time.Minute,
		},
		Memo:       MemoSettings{Tier: TierThorough},
		Transcript: TranscriptMemory,
		Pipeline:   DefaultPipelineConfig(),
	}
}

// PipelineConfig lists the post-processors run over normalised text and
// their options, keyed by processor name.
type PipelineConfig struct {
	Processors       []string
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns the options for name, or nil.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	return c.ProcessorConfigs[name]
}

// DefaultPipelineConfig chunks small so citations point at a tight
// excerpt, then drops repeated chunks.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker", "dedupe"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {"chunk_size": 800, "overlap": 150},
		},
	}
}
