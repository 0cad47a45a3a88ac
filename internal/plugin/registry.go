package plugin

import (
	"fmt"
	"slices"
	"sync"
)

// Registry manages the plugins a binary knows about. A project picks from
// it by name.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	order   []string
}

// NewRegistry creates a new empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
	}
}

// Register adds a plugin to the registry.
// Returns an error if a plugin with the same name already exists.
func (r *Registry) Register(plugin Plugin) error {
	if plugin == nil {
		return fmt.Errorf("cannot register nil plugin")
	}

	metadata := plugin.Metadata()
	if err := metadata.Validate(); err != nil {
		return fmt.Errorf("invalid plugin metadata: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[metadata.Name]; exists {
		return fmt.Errorf("plugin %s already registered", metadata.Name)
	}

	r.plugins[metadata.Name] = plugin
	r.order = append(r.order, metadata.Name)
	return nil
}

// Get retrieves a plugin by name.
func (r *Registry) Get(name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugin, ok := r.plugins[name]
	if !ok {
		return nil, fmt.Errorf("plugin %s not found", name)
	}
	return plugin, nil
}

// Has checks if a plugin with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.plugins[name]
	return ok
}

// List returns all registered plugins in registration order.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.plugins[name])
	}
	return result
}

// ListByType returns all plugins of a specific type.
func (r *Registry) ListByType(pluginType Type) []Plugin {
	var result []Plugin
	for _, plugin := range r.List() {
		if plugin.Metadata().Type == pluginType {
			result = append(result, plugin)
		}
	}
	return result
}

// Names returns the registered plugin names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Resolve returns the named plugins in configuration order, with every
// dependency placed before the first plugin that needs it. Dependencies
// that were not named are added. Unknown names and cycles are errors.
func (r *Registry) Resolve(names []string) ([]Plugin, error) {
	var (
		result   []Plugin
		done     = map[string]bool{}
		visiting = map[string]bool{}
	)

	var visit func(name string, chain []string) error
	visit = func(name string, chain []string) error {
		if done[name] {
			return nil
		}
		if visiting[name] {
			return fmt.Errorf("plugin dependency cycle: %v", append(chain, name))
		}
		plugin, err := r.Get(name)
		if err != nil {
			if len(chain) > 0 {
				return fmt.Errorf("plugin %s requires %s: %w", chain[len(chain)-1], name, err)
			}
			return err
		}
		visiting[name] = true
		for _, dep := range plugin.Metadata().Dependencies {
			if err := visit(dep, append(chain, name)); err != nil {
				return err
			}
		}
		visiting[name] = false
		done[name] = true
		result = append(result, plugin)
		return nil
	}

	for _, name := range names {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return result, nil
}
