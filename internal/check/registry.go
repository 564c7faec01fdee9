package check

import (
	"errors"
	"fmt"
	"sync"
)

// Registry holds plugins in registration order.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	index   map[string]int
}

// NewRegistry creates a registry with the given plugins.
// It returns an error on the first plugin that cannot be registered.
func NewRegistry(plugins ...Plugin) (*Registry, error) {
	r := &Registry{index: make(map[string]int)}
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a plugin. Plugin names and the check names inside a
// plugin must be unique and non-empty.
func (r *Registry) Register(p Plugin) error {
	if p.Name == "" {
		return errors.New("plugin name is required")
	}
	seen := make(map[string]bool, len(p.Checks))
	for i, c := range p.Checks {
		if c.Name == "" {
			return fmt.Errorf("plugin %q: check %d has no name", p.Name, i)
		}
		if c.Run == nil {
			return fmt.Errorf("plugin %q: check %q has no run function", p.Name, c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("plugin %q: duplicate check %q", p.Name, c.Name)
		}
		seen[c.Name] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if _, exists := r.index[p.Name]; exists {
		return fmt.Errorf("plugin %q already registered", p.Name)
	}
	r.index[p.Name] = len(r.plugins)
	r.plugins = append(r.plugins, p)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(p Plugin) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Plugin returns the plugin registered under name.
func (r *Registry) Plugin(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[name]
	if !ok {
		return Plugin{}, false
	}
	return r.plugins[i], true
}

// Names returns plugin names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.plugins))
	for i, p := range r.plugins {
		names[i] = p.Name
	}
	return names
}
