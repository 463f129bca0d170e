package services

import (
	"sort"
)

// Registry maps admin-facing service names to their CMS endpoints
type Registry struct {
	endpoints map[string]*Endpoint
}

// NewRegistry indexes endpoints by name
func NewRegistry(endpoints ...*Endpoint) *Registry {
	r := &Registry{endpoints: make(map[string]*Endpoint, len(endpoints))}
	for _, e := range endpoints {
		r.endpoints[e.Name()] = e
	}
	return r
}

// Lookup returns the endpoint registered under name
func (r *Registry) Lookup(name string) (*Endpoint, bool) {
	e, ok := r.endpoints[name]
	return e, ok
}

// Names lists registered service names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.endpoints))
	for name := range r.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
