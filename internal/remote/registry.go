package remote

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a resolver from options.
type Factory func(Options) (Resolver, error)

// Registry maps provider type names to resolver factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register installs a factory. Returns an error if the name already exists.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("remote: provider name is required")
	}
	if factory == nil {
		return fmt.Errorf("remote: factory is required for %s", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("remote: provider %s already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// New constructs the resolver registered under name.
func (r *Registry) New(name string, opts Options) (Resolver, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("remote: unknown provider %q (known: %v)", name, r.Names())
	}
	return factory(opts)
}

// Names returns the sorted provider names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister("none", func(Options) (Resolver, error) { return Null{}, nil })
	r.MustRegister("github", func(opts Options) (Resolver, error) { return NewGitHub(opts) })
	return r
}

// Register installs a provider in the default registry.
func Register(name string, factory Factory) error {
	return defaultRegistry.Register(name, factory)
}

// New constructs a provider from the default registry.
func New(name string, opts Options) (Resolver, error) {
	return defaultRegistry.New(name, opts)
}

// Providers lists the providers of the default registry.
func Providers() []string {
	return defaultRegistry.Names()
}
