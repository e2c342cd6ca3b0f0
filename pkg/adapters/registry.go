package adapters

import (
	"fmt"
	"sync"

	"github.com/openagents-control/oac/pkg/schema"
)

// AdapterRegistryError reports a rejected registration
type AdapterRegistryError struct {
	Name   string
	Reason string
}

func (e *AdapterRegistryError) Error() string {
	return fmt.Sprintf("cannot register adapter %q: %s", e.Name, e.Reason)
}

// Registry is a catalog of adapters keyed by name. Registration never
// overwrites an existing entry. Lookups and registration may run
// concurrently.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	infos    map[string]AdapterInfo
	order    []string // registration order
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
		infos:    make(map[string]AdapterInfo),
	}
}

// Builtins returns fresh instances of every built-in adapter, in the order
// NewBuiltinRegistry registers them.
func Builtins() []Adapter {
	return []Adapter{
		NewOpenAgents(),
		NewClaude(),
		NewCursor(),
		NewWindsurf(),
	}
}

// NewBuiltinRegistry returns a registry holding every built-in adapter
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, a := range Builtins() {
		if err := r.Register(a); err != nil {
			panic(err) // built-in names are constants
		}
	}
	return r
}

// Register adds a under a.Name(). It fails with *AdapterRegistryError if
// the name is taken or not a lowercase slug.
func (r *Registry) Register(a Adapter) error {
	if a == nil {
		return &AdapterRegistryError{Reason: "adapter is nil"}
	}
	name := a.Name()
	if err := schema.ValidName(name); err != nil {
		return &AdapterRegistryError{Name: name, Reason: "invalid name: " + err.Error()}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[name]; exists {
		return &AdapterRegistryError{Name: name, Reason: "an adapter with this name is already registered"}
	}
	r.adapters[name] = a
	r.infos[name] = infoOf(a)
	r.order = append(r.order, name)
	return nil
}

// Unregister removes the adapter registered under name and reports whether
// there was one.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.adapters[name]; !ok {
		return false
	}
	delete(r.adapters, name)
	delete(r.infos, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the adapter registered under name
func (r *Registry) Get(name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

// List returns the registered names in registration order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Info returns the description of the adapter registered under name
func (r *Registry) Info(name string) (AdapterInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.infos[name]
	if !ok {
		return AdapterInfo{}, false
	}
	info.Capabilities = info.Capabilities.Clone()
	return info, true
}

// Infos returns every adapter description in registration order
func (r *Registry) Infos() []AdapterInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]AdapterInfo, 0, len(r.order))
	for _, name := range r.order {
		info := r.infos[name]
		info.Capabilities = info.Capabilities.Clone()
		infos = append(infos, info)
	}
	return infos
}

// GetAllCapabilities returns a snapshot of every adapter description keyed
// by name. The snapshot shares no memory with the registry.
func (r *Registry) GetAllCapabilities() map[string]AdapterInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make(map[string]AdapterInfo, len(r.infos))
	for name, info := range r.infos {
		info.Capabilities = info.Capabilities.Clone()
		all[name] = info
	}
	return all
}

// Len returns the number of registered adapters
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}
