// Package forge wires the per-forge gateway implementations behind a
// name-keyed registry, so commands pick a forge by configuration.
package forge

import (
	"fmt"

	"github.com/rios0rios0/bulkedit/domain"
)

// Registry manages all registered forge implementations.
type Registry struct {
	forges map[string]Factory
}

// Factory is a constructor function that creates a Forge given an auth token.
type Factory func(token string) domain.Forge

// NewRegistry creates an empty forge registry.
func NewRegistry() *Registry {
	return &Registry{
		forges: make(map[string]Factory),
	}
}

// Register adds a forge factory under the given name (e.g. "github").
func (r *Registry) Register(name string, factory Factory) {
	r.forges[name] = factory
}

// Get returns a configured forge instance for the given name and token.
func (r *Registry) Get(name, token string) (domain.Forge, error) {
	factory, ok := r.forges[name]
	if !ok {
		return nil, fmt.Errorf("unknown forge: %q", name)
	}
	return factory(token), nil
}

// Names returns the list of registered forge names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.forges))
	for name := range r.forges {
		names = append(names, name)
	}
	return names
}
