package driven

// ConfigStore holds settings under dotted keys such as "llm.model" or
// "pipeline.chunker.chunk_size". Typed getters return the zero value when a
// key is missing or holds another type; SettingsService applies defaults.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int

	// GetStringSlice reads a list such as pipeline.processors.
	GetStringSlice(key string) []string

	// Set stores value and persists it before returning.
	Set(key string, value any) error

	// Path names where settings live, for display in "settings show".
	Path() string
}
