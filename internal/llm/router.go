package llm

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	ErrProviderNotFound      = errors.New("provider not registered")
	ErrProviderNotConfigured = errors.New("provider not configured")
)

// Router holds the registered providers and picks the one that drives turns
type Router struct {
	mu        sync.RWMutex
	providers map[string]Provider
	preferred string
}

// NewRouter creates a router that resolves the empty name to preferred
func NewRouter(preferred string, providers ...Provider) *Router {
	r := &Router{providers: make(map[string]Provider), preferred: preferred}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds p, replacing any provider with the same name
func (r *Router) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Preferred returns the provider name used when none is requested
func (r *Router) Preferred() string {
	return r.preferred
}

// Resolve returns the named provider, or the preferred one for "".
// Unregistered and credential-less providers are both errors.
func (r *Router) Resolve(name string) (Provider, error) {
	if name == "" {
		name = r.preferred
	}

	r.mu.RLock()
	p, ok := r.providers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrProviderNotFound, name, r.Available())
	}
	if !p.IsConfigured() {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, name)
	}
	return p, nil
}

// Available lists configured provider names in order
func (r *Router) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name, p := range r.providers {
		if p.IsConfigured() {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// ProviderInfo describes a registered provider
type ProviderInfo struct {
	Name         string   `json:"name"`
	Models       []string `json:"models"`
	DefaultModel string   `json:"default_model"`
	Preferred    bool     `json:"preferred"`
	Configured   bool     `json:"configured"`
}

// Catalog describes every registered provider, sorted by name
func (r *Router) Catalog() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(r.providers))
	for name, p := range r.providers {
		infos = append(infos, ProviderInfo{
			Name:         name,
			Models:       p.AvailableModels(),
			DefaultModel: p.DefaultModel(),
			Preferred:    name == r.preferred,
			Configured:   p.IsConfigured(),
		})
	}
	slices.SortFunc(infos, func(a, b ProviderInfo) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return infos
}
