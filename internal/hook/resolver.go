package hook

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/authrelay/authrelay/internal/db/models"
	"github.com/authrelay/authrelay/internal/token"
)

// Resolver resolves and caches hook references. The cache is populated during
// startup (the daemon pre-resolves every configured reference) and read-only
// on the request path.
type Resolver struct {
	mu    sync.RWMutex
	cache map[string]any
}

// NewResolver creates an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{cache: make(map[string]any)}
}

// Login resolves a login-notification reference. An empty reference yields a
// no-op.
func (r *Resolver) Login(ref string) (LoginNotify, error) {
	if ref == "" {
		return func(context.Context, *models.User) error { return nil }, nil
	}

	capability, err := r.resolve("login", ref)
	if err != nil {
		return nil, err
	}

	switch fn := capability.(type) {
	case LoginNotify:
		return fn, nil
	case func(context.Context, *models.User) error:
		return LoginNotify(fn), nil
	default:
		return nil, fmt.Errorf("reference %q is not a login-notify hook: %w", ref, ErrWrongSignature)
	}
}

// Logout resolves a logout-notification reference. An empty reference yields
// a no-op.
func (r *Resolver) Logout(ref string) (LogoutNotify, error) {
	if ref == "" {
		return func(context.Context) error { return nil }, nil
	}

	capability, err := r.resolve("logout", ref)
	if err != nil {
		return nil, err
	}

	switch fn := capability.(type) {
	case LogoutNotify:
		return fn, nil
	case func(context.Context) error:
		return LogoutNotify(fn), nil
	default:
		return nil, fmt.Errorf("reference %q is not a logout-notify hook: %w", ref, ErrWrongSignature)
	}
}

// User resolves a user-mapping reference. The reference must be non-empty;
// callers fall back to the built-in default mapping when no reference is
// configured.
func (r *Resolver) User(ref string) (UserMapping, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty user-mapping reference: %w", ErrMalformedReference)
	}

	capability, err := r.resolve("user", ref)
	if err != nil {
		return nil, err
	}

	switch fn := capability.(type) {
	case UserMapping:
		return fn, nil
	case func(context.Context, token.Claims, token.Claims) (*models.User, error):
		return UserMapping(fn), nil
	default:
		return nil, fmt.Errorf("reference %q is not a user-mapping hook: %w", ref, ErrWrongSignature)
	}
}

// resolve parses the reference, looks up the export and caches the result.
// Repeat calls for the same slot and reference hit the cache and never touch
// the module registry again.
func (r *Resolver) resolve(slot, ref string) (any, error) {
	key := slot + "\x00" + ref

	r.mu.RLock()
	capability, hit := r.cache[key]
	r.mu.RUnlock()

	if hit {
		return capability, nil
	}

	module, symbol, err := parseReference(ref)
	if err != nil {
		return nil, err
	}

	capability, err = lookupExport(module, symbol)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[key] = capability
	r.mu.Unlock()

	return capability, nil
}

func parseReference(ref string) (module, symbol string, err error) {
	module, symbol, found := strings.Cut(ref, ":")
	if !found || module == "" || symbol == "" || strings.ContainsAny(symbol, ": \t") || strings.ContainsAny(module, " \t") {
		return "", "", fmt.Errorf("reference %q: %w", ref, ErrMalformedReference)
	}

	return module, symbol, nil
}
