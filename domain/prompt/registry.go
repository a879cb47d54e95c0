package prompt

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages prompt definitions and provides lookup functionality.
type Registry struct {
	prompts map[string]*Prompt
	mu      sync.RWMutex
}

// NewRegistry creates a new empty prompt registry.
func NewRegistry() *Registry {
	return &Registry{
		prompts: make(map[string]*Prompt),
	}
}

// Register adds a prompt to the registry.
// If a prompt with the same name exists, it will be replaced.
func (r *Registry) Register(p *Prompt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts[p.Name] = p
}

// Get retrieves a prompt by name.
// Returns nil if not found.
func (r *Registry) Get(name string) *Prompt {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prompts[name]
}

// Require retrieves a prompt by name or reports that it is missing.
func (r *Registry) Require(name string) (*Prompt, error) {
	if p := r.Get(name); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("prompt %q not registered", name)
}

// List returns all registered prompt names, sorted alphabetically.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.prompts))
	for name := range r.prompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered prompts.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prompts)
}
