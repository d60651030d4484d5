package effectchain

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cwbudde/algo-fx/dsp/effect"
)

// Factory builds one configured, uninitialized Effect.
type Factory func(ctx Context) (*effect.Effect, error)

// Registry maps effect type names to their factories. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

var errDuplicateEffect = errors.New("duplicate effect type")

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for the given effect type.
func (r *Registry) Register(effectType string, factory Factory) error {
	if effectType == "" {
		return errors.New("empty effect type")
	}

	if factory == nil {
		return errors.New("nil factory")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[effectType]; exists {
		return fmt.Errorf("%w: %s", errDuplicateEffect, effectType)
	}

	r.factories[effectType] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(effectType string, factory Factory) {
	err := r.Register(effectType, factory)
	if err != nil {
		panic("effectchain registry: " + err.Error())
	}
}

// Lookup returns the factory for the given effect type, or nil.
func (r *Registry) Lookup(effectType string) Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.factories[normalizeType(effectType)]
}

// Create builds an effect of the given type. The effect is not initialized;
// the chain does that on insertion.
func (r *Registry) Create(effectType string, ctx Context, opts ...effect.Option) (*effect.Effect, error) {
	factory := r.Lookup(effectType)
	if factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, effectType)
	}

	fx, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("effectchain: create %s: %w", effectType, err)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(fx)
		}
	}

	return fx, nil
}

// Types returns the registered effect types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}

	sort.Strings(types)

	return types
}
