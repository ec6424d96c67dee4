package llmprovider

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hectorcore/hectorcore/internal/config"
	"github.com/hectorcore/hectorcore/internal/registry"
)

// Registry holds named Providers, mirroring pkg/llms/registry.go's
// LLMRegistry built over the same generic registry.BaseRegistry the
// Tool Registry uses.
type Registry struct {
	base *registry.BaseRegistry[Provider]

	mu    sync.Mutex
	names map[string]bool // BaseRegistry.List() drops keys; tracked alongside for Names()
}

func NewRegistry() *Registry {
	return &Registry{base: registry.NewBaseRegistry[Provider](), names: make(map[string]bool)}
}

// CreateFromConfig builds a Provider for name from cfg, wraps it in a
// CachedProvider if cfg.CacheTTLSeconds > 0, registers it, and returns
// it.
func (r *Registry) CreateFromConfig(name string, cfg config.ProviderConfig) (Provider, error) {
	var provider Provider
	switch cfg.Type {
	case "local":
		provider = NewLocalProvider(cfg)
	case "remote":
		provider = NewRemoteProvider(cfg)
	default:
		return nil, fmt.Errorf("llmprovider: unsupported provider type %q (supported: local, remote)", cfg.Type)
	}

	if cfg.CacheTTLSeconds > 0 {
		provider = NewCachedProvider(provider, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	}

	if err := r.base.Register(name, provider); err != nil {
		return nil, fmt.Errorf("llmprovider: register %s: %w", name, err)
	}
	r.mu.Lock()
	r.names[name] = true
	r.mu.Unlock()
	return provider, nil
}

// Get returns the Provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	provider, ok := r.base.Get(name)
	if !ok {
		return nil, fmt.Errorf("llmprovider: provider %q not found", name)
	}
	return provider, nil
}

// Names lists every registered provider name, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
