// Package env overlays environment variables on a driven.ConfigStore.
//
// A key such as "index.backend" is read from DILIGENCE_INDEX_BACKEND before
// falling back to the wrapped store. API keys also honour the provider's
// conventional variable (OPENAI_API_KEY, ANTHROPIC_API_KEY). Writes always
// go to the wrapped store.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.ConfigStore = (*Store)(nil)

// Prefix is prepended to every derived variable name.
const Prefix = "DILIGENCE_"

// providerKeyVars maps a provider to its conventional API key variable.
var providerKeyVars = map[domain.AIProvider]string{
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
}

// Store is a ConfigStore decorator that reads environment variables first.
type Store struct {
	inner  driven.ConfigStore
	lookup func(string) (string, bool)
}

// New wraps inner.
func New(inner driven.ConfigStore) *Store {
	return &Store{inner: inner, lookup: os.LookupEnv}
}

// LoadDotEnv loads .env files into the process environment. Variables that
// are already set win. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat %s: %w", p, err)
		}
		existing = append(existing, p)
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	logger.Debug("loaded environment from %s", strings.Join(existing, ", "))
	return nil
}

// DefaultDotEnvPaths returns ./.env followed by <configDir>/.env.
func DefaultDotEnvPaths(configDir string) []string {
	paths := []string{".env"}
	if configDir != "" {
		paths = append(paths, filepath.Join(configDir, ".env"))
	}
	return paths
}

// VarName returns the environment variable for a config key.
func VarName(key string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return Prefix + strings.ToUpper(r.Replace(key))
}

// lookupKey returns the environment value for key, if any.
func (s *Store) lookupKey(key string) (string, bool) {
	if v, ok := s.lookup(VarName(key)); ok && v != "" {
		return v, true
	}

	var providerKey string
	switch key {
	case "llm.api_key":
		providerKey = "llm.provider"
	case "embedding.api_key":
		providerKey = "embedding.provider"
	default:
		return "", false
	}

	provider := domain.AIProvider(s.GetString(providerKey))
	if provider == "" && providerKey == "llm.provider" {
		provider = domain.DefaultAppSettings().LLM.Provider
	}
	name, ok := providerKeyVars[provider]
	if !ok {
		return "", false
	}
	if v, ok := s.lookup(name); ok && v != "" {
		return v, true
	}
	return "", false
}

// Get retrieves a configuration value, preferring the environment.
func (s *Store) Get(key string) (any, bool) {
	if v, ok := s.lookupKey(key); ok {
		return v, true
	}
	return s.inner.Get(key)
}

// GetString retrieves a string configuration value.
func (s *Store) GetString(key string) string {
	if v, ok := s.lookupKey(key); ok {
		return v
	}
	return s.inner.GetString(key)
}

// GetInt retrieves an integer configuration value.
// An unparsable environment value is ignored.
func (s *Store) GetInt(key string) int {
	if v, ok := s.lookupKey(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		logger.Warn("ignoring %s: %q is not an integer", VarName(key), v)
	}
	return s.inner.GetInt(key)
}

// GetStringSlice retrieves a comma-separated list.
func (s *Store) GetStringSlice(key string) []string {
	if v, ok := s.lookupKey(key); ok {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return s.inner.GetStringSlice(key)
}

// Set writes to the wrapped store.
func (s *Store) Set(key string, value any) error {
	return s.inner.Set(key, value)
}

// Path returns the wrapped store's path.
func (s *Store) Path() string {
	return s.inner.Path()
}
