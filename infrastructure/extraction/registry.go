package extraction

import (
	"fmt"

	"github.com/rios0rios0/bulkedit/domain"
)

// Registry manages all registered extraction strategy implementations.
type Registry struct {
	strategies map[domain.ExtractionStrategyKind]domain.ExtractionStrategy
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[domain.ExtractionStrategyKind]domain.ExtractionStrategy),
	}
}

// Register adds a strategy under its kind.
func (r *Registry) Register(s domain.ExtractionStrategy) {
	r.strategies[s.Kind()] = s
}

// Get returns the strategy for the given kind, or an error when no
// implementation is registered for it.
func (r *Registry) Get(kind domain.ExtractionStrategyKind) (domain.ExtractionStrategy, error) {
	s, ok := r.strategies[kind]
	if !ok {
		return nil, fmt.Errorf("no extraction strategy registered for kind %q", kind)
	}
	return s, nil
}

// Kinds returns the list of registered strategy kinds.
func (r *Registry) Kinds() []domain.ExtractionStrategyKind {
	kinds := make([]domain.ExtractionStrategyKind, 0, len(r.strategies))
	for kind := range r.strategies {
		kinds = append(kinds, kind)
	}
	return kinds
}
