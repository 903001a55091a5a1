package carriers

import (
	"sort"
	"strings"
)

// Registry resolves carrier names to adapters. It is built once at startup
// and immutable afterwards, so concurrent reads need no synchronization.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a registry from the configured adapters. Names are
// case-insensitive and must be unique; a later duplicate wins so a test
// double can shadow a real adapter in wiring code.
func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		if a == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(a.Name()))
		if name == "" {
			continue
		}
		m[name] = a
	}
	return &Registry{adapters: m}
}

// Get resolves a carrier name. The second return is false when the carrier
// is not registered.
func (r *Registry) Get(name string) (Adapter, bool) {
	if r == nil {
		return nil, false
	}
	a, ok := r.adapters[strings.ToLower(strings.TrimSpace(name))]
	return a, ok
}

// List returns the registered carrier names, sorted for stable output.
func (r *Registry) List() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
