package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/core/ports/driving"
)

var _ driving.SettingsService = (*SettingsService)(nil)

// SettingsService reads and writes AppSettings through a ConfigStore.
// Missing or unparseable values read back as defaults, so a hand-edited
// file never stops the CLI from starting.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates the service. aiValidator may be nil, in
// which case provider checks always pass.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{configStore: configStore, aiValidator: aiValidator}
}

// Get assembles the current settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()
	r := reader{s.configStore}

	return &domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider:      enum(r, keyLLMProvider, d.LLM.Provider),
			Model:         r.text(keyLLMModel, d.LLM.Model),
			ThoroughModel: r.optional(keyLLMThoroughModel, d.LLM.ThoroughModel),
			BaseURL:       r.text(keyLLMBaseURL, ""),
			APIKey:        r.text(keyLLMAPIKey, ""),
			Tier:          enum(r, keyLLMTier, d.LLM.Tier),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: enum(r, keyEmbedProvider, d.Embedding.Provider),
			Model:    r.text(keyEmbedModel, d.Embedding.Model),
			BaseURL:  r.text(keyEmbedBaseURL, ""),
			APIKey:   r.text(keyEmbedAPIKey, ""),
		},
		Index: domain.IndexSettings{
			Backend:           enum(r, keyIndexBackend, d.Index.Backend),
			TopK:              r.integer(keyIndexTopK, d.Index.TopK),
			RelevanceFloor:    r.float(keyIndexFloor, d.Index.RelevanceFloor),
			MaxRetries:        r.integer(keyIndexMaxRetries, d.Index.MaxRetries),
			RequestsPerSecond: r.float(keyIndexRPS, d.Index.RequestsPerSecond),
			DataDir:           r.text(keyIndexDataDir, d.Index.DataDir),
		},
		Timeouts: domain.TimeoutSettings{
			Index:    r.duration(keyTimeoutIndex, d.Timeouts.Index),
			Search:   r.duration(keyTimeoutSearch, d.Timeouts.Search),
			Generate: r.duration(keyTimeoutGenerate, d.Timeouts.Generate),
		},
		Memo:       domain.MemoSettings{Tier: enum(r, keyMemoTier, d.Memo.Tier)},
		Transcript: enum(r, keyTranscript, d.Transcript),
		Pipeline:   s.pipeline(),
	}, nil
}

// Save writes every field of settings. Empty API keys are skipped so keys
// supplied through the environment never land in the file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := map[string]any{
		keyLLMProvider:      settings.LLM.Provider.String(),
		keyLLMModel:         settings.LLM.Model,
		keyLLMThoroughModel: settings.LLM.ThoroughModel,
		keyLLMBaseURL:       settings.LLM.BaseURL,
		keyLLMTier:          settings.LLM.Tier.String(),
		keyEmbedProvider:    settings.Embedding.Provider.String(),
		keyEmbedModel:       settings.Embedding.Model,
		keyEmbedBaseURL:     settings.Embedding.BaseURL,
		keyIndexBackend:     settings.Index.Backend.String(),
		keyIndexTopK:        settings.Index.TopK,
		keyIndexFloor:       settings.Index.RelevanceFloor,
		keyIndexMaxRetries:  settings.Index.MaxRetries,
		keyIndexRPS:         settings.Index.RequestsPerSecond,
		keyIndexDataDir:     settings.Index.DataDir,
		keyTimeoutIndex:     settings.Timeouts.Index.String(),
		keyTimeoutSearch:    settings.Timeouts.Search.String(),
		keyTimeoutGenerate:  settings.Timeouts.Generate.String(),
		keyMemoTier:         settings.Memo.Tier.String(),
		keyTranscript:       string(settings.Transcript),
	}
	if settings.LLM.APIKey != "" {
		values[keyLLMAPIKey] = settings.LLM.APIKey
	}
	if settings.Embedding.APIKey != "" {
		values[keyEmbedAPIKey] = settings.Embedding.APIKey
	}

	// Key order keeps partial writes predictable if the store fails midway.
	for _, key := range SettingKeys() {
		v, ok := values[key]
		if !ok {
			continue
		}
		if err := s.configStore.Set(key, v); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// Set validates value for key, converts it and stores it.
func (s *SettingsService) Set(key, value string) error {
	parse, ok := lookupKey(key)
	if !ok {
		return invalid("unknown setting %q", key)
	}
	stored, err := parse(key, strings.TrimSpace(value))
	if err != nil {
		return err
	}
	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys Set accepts.
func (s *SettingsService) Keys() []string {
	return SettingKeys()
}

// SetLLMProvider switches the answering model. The thorough-tier model
// belongs to the previous provider and is cleared on a switch.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	return s.setProvider(provider, model, apiKey, false)
}

// SetEmbeddingProvider switches the embedding model used by chromem.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	return s.setProvider(provider, model, apiKey, true)
}

func (s *SettingsService) setProvider(provider domain.AIProvider, model, apiKey string, embedding bool) error {
	kind := "LLM"
	if embedding {
		kind = "embedding"
	}
	switch {
	case !provider.IsValid():
		return invalid("unknown %s provider %q", kind, provider)
	case embedding && !supportsEmbedding(provider):
		return invalid("provider %s does not support embeddings", provider)
	case provider.RequiresAPIKey() && apiKey == "":
		return invalid("%s needs an API key", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	defaults := domain.DefaultLLMModels()
	if embedding {
		defaults = domain.DefaultEmbeddingModels()
	}
	if model == "" {
		model = defaults[provider]
	}

	baseURL := ""
	if provider.IsLocal() {
		baseURL = domain.DefaultOllamaURL
	}

	if embedding {
		e := &settings.Embedding
		if provider.IsLocal() && e.BaseURL != "" {
			baseURL = e.BaseURL
		}
		*e = domain.EmbeddingSettings{Provider: provider, Model: model, BaseURL: baseURL, APIKey: apiKey}
	} else {
		l := &settings.LLM
		if provider.IsLocal() && l.BaseURL != "" {
			baseURL = l.BaseURL
		}
		if l.Provider != provider {
			l.ThoroughModel = ""
		}
		l.Provider, l.Model, l.BaseURL, l.APIKey = provider, model, baseURL, apiKey
	}
	return s.Save(settings)
}

// SetIndexBackend selects the document index backend.
func (s *SettingsService) SetIndexBackend(backend domain.IndexBackend) error {
	return s.Set(keyIndexBackend, backend.String())
}

// Validate reports the first reason the current settings cannot answer
// questions.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	backend := settings.Index.Backend
	switch {
	case !settings.LLM.IsConfigured():
		return fmt.Errorf("%w: configure llm.provider and llm.api_key", domain.ErrLLMUnavailable)
	case backend.RequiresEmbedding() && !settings.Embedding.IsConfigured():
		return fmt.Errorf("%w: index backend %q requires an embedding provider",
			domain.ErrEmbeddingUnavailable, backend.Description())
	case backend == domain.IndexBackendOpenAI && settings.OpenAIKey() == "":
		return invalid("index backend %q requires an OpenAI API key", backend.Description())
	}
	return nil
}

// ConfigPath returns where the settings live.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// ValidateLLMConfig pings the configured LLM provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// ValidateEmbeddingConfig pings the configured embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// pipeline overlays stored processor names and chunker options on the
// default pipeline.
func (s *SettingsService) pipeline() domain.PipelineConfig {
	cfg := domain.DefaultPipelineConfig()
	if names := s.configStore.GetStringSlice(keyProcessors); len(names) > 0 {
		cfg.Processors = names
	}

	for _, key := range []string{keyChunkSize, keyChunkOverlap} {
		v, ok := s.configStore.Get(key)
		if !ok {
			continue
		}
		if cfg.ProcessorConfigs == nil {
			cfg.ProcessorConfigs = make(map[string]map[string]any)
		}
		if cfg.ProcessorConfigs["chunker"] == nil {
			cfg.ProcessorConfigs["chunker"] = make(map[string]any)
		}
		cfg.ProcessorConfigs["chunker"][key[strings.LastIndex(key, ".")+1:]] = v
	}
	return cfg
}

// reader reads typed values with fallbacks.
type reader struct {
	store driven.ConfigStore
}

func (r reader) text(key, def string) string {
	if v := r.store.GetString(key); v != "" {
		return v
	}
	return def
}

// optional returns a stored empty string as is; only a missing key
// falls back.
func (r reader) optional(key, def string) string {
	if _, ok := r.store.Get(key); !ok {
		return def
	}
	return r.store.GetString(key)
}

func (r reader) integer(key string, def int) int {
	if _, ok := r.store.Get(key); !ok {
		return def
	}
	return r.store.GetInt(key)
}

func (r reader) float(key string, def float64) float64 {
	v, ok := r.store.Get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return def
}

func (r reader) duration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(r.store.GetString(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// validatable is implemented by the string enums in domain.
type validatable interface {
	~string
	IsValid() bool
}

func enum[T validatable](r reader, key string, def T) T {
	if v := T(r.store.GetString(key)); v.IsValid() {
		return v
	}
	return def
}
