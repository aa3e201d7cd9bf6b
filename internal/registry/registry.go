// Package registry lets modules share services at runtime.
package registry

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/nfrund/planspiel/internal/config"
)

// Key is a type-safe, generic key for registering and retrieving services.
// The string value should be a unique identifier, e.g. "planspiel.engine".
type Key[T any] string

// Registry is a typed facade over a samber/do injector.
type Registry struct {
	injector do.Injector
	cfg      config.Provider
}

// New creates a new registry with the application's configuration provider.
func New(cfg config.Provider) *Registry {
	return &Registry{
		injector: do.New(),
		cfg:      cfg,
	}
}

// Config returns the configuration provider stored in the registry.
func (r *Registry) Config() config.Provider {
	return r.cfg
}

// Set registers a service instance against a key, replacing any previous one.
func Set[T any](r *Registry, key Key[T], value T) {
	do.OverrideNamedValue(r.injector, string(key), value)
}

// Get retrieves a service by key.
func Get[T any](r *Registry, key Key[T]) (T, bool) {
	val, err := do.InvokeNamed[T](r.injector, string(key))
	if err != nil {
		var zero T
		return zero, false
	}
	return val, true
}

// MustGet retrieves a service or panics if not found. Use it for wiring
// essential dependencies at startup.
func MustGet[T any](r *Registry, key Key[T]) T {
	val, ok := Get(r, key)
	if !ok {
		panic(fmt.Sprintf("service not found for key: %v", key))
	}
	return val
}
