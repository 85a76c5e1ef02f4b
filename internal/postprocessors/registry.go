package postprocessors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
)

// BuilderFunc creates a PostProcessor from the settings under
// pipeline.<name>.* in the config file.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Registry maps the names accepted by pipeline.processors to builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty registry. Use RegisterDefaults for the
// built-in processors.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register adds or replaces the builder for name.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates the processor registered as name. Unknown names are
// reported with the list of valid ones so a bad pipeline.processors value
// can be fixed from the error alone.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown processor %q (available: %s)",
			domain.ErrInvalidInput, name, strings.Join(r.Names(), ", "))
	}
	proc, err := builder(cfg)
	if err != nil {
		return nil, fmt.Errorf("build processor %s: %w", name, err)
	}
	return proc, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
