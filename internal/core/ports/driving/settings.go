package driving

import "github.com/custodia-labs/diligence/internal/core/domain"

// SettingsService is what the settings commands and the wizard use.
type SettingsService interface {
	// Get returns the current settings, defaults filled in.
	Get() (*domain.AppSettings, error)

	// Save writes every field of settings.
	Save(settings *domain.AppSettings) error

	// Set parses and stores one dotted key such as "index.top_k".
	// Bad keys and values wrap domain.ErrInvalidInput.
	Set(key, value string) error

	// Keys lists the keys Set accepts.
	Keys() []string

	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetIndexBackend(backend domain.IndexBackend) error

	// Validate reports why the settings cannot answer questions, if they
	// cannot.
	Validate() error

	// ConfigPath reports where settings are stored.
	ConfigPath() string

	// ValidateLLMConfig and ValidateEmbeddingConfig ping the configured
	// providers.
	ValidateLLMConfig() error
	ValidateEmbeddingConfig() error
}
