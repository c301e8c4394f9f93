package provider

import (
	"sort"

	"github.com/pkg/errors"
)

// Registry maps provider names to their configuration. It is populated once
// at startup and read-only afterwards, so lookups are safe for unlimited
// concurrent callers without locking.
type Registry struct {
	providers map[string]*Config
}

// NewRegistry builds a registry from the configured provider map. Every
// provider block is validated; any failure is returned so startup can abort
// before the service accepts traffic.
func NewRegistry(configs map[string]Config) (*Registry, error) {
	r := &Registry{
		providers: make(map[string]*Config, len(configs)),
	}

	// iterate in sorted order so validation failures are deterministic
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		cfg := configs[name]
		if err := r.Register(name, &cfg); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Register adds a provider configuration under the given name. A duplicate
// name is a configuration error: the registry never silently replaces a
// provider.
func (r *Registry) Register(name string, cfg *Config) error {
	if name == "" {
		return errors.Wrap(ErrInvalidProvider, "provider name is empty")
	}

	if _, exists := r.providers[name]; exists {
		return errors.Wrapf(ErrDuplicateProvider, "provider %q", name)
	}

	cfg.Name = name

	if err := cfg.Validate(); err != nil {
		return err
	}

	r.providers[name] = cfg

	return nil
}

// Lookup returns the configuration registered under exactly this name.
func (r *Registry) Lookup(name string) (*Config, error) {
	cfg, ok := r.providers[name]
	if !ok {
		return nil, errors.Wrapf(ErrProviderNotFound, "provider %q", name)
	}

	return cfg, nil
}

// Names returns the sorted names of all registered providers.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
