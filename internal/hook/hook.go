package hook

import (
	"context"
	"fmt"
	"sync"

	"github.com/authrelay/authrelay/internal/db/models"
	"github.com/authrelay/authrelay/internal/token"
)

// LoginNotify is called after a session is established. Failures are logged
// by the caller and never fail the login.
type LoginNotify func(ctx context.Context, user *models.User) error

// LogoutNotify is called before the local session is invalidated. Failures
// are logged by the caller and never fail the logout.
type LogoutNotify func(ctx context.Context) error

// UserMapping turns validated claim sets into a local user. It may perform
// group side effects through the user store and may return an error wrapping
// ErrAccessDenied to reject the login.
type UserMapping func(ctx context.Context, userinfo, idToken token.Claims) (*models.User, error)

var (
	modulesMu sync.RWMutex
	modules   = make(map[string]map[string]any)
)

// RegisterModule makes a module's exports addressable by hook references.
// It panics when the path was already registered, mirroring the behavior of
// other process-lifetime registries; registration belongs in init functions
// or startup wiring, never in request handling.
func RegisterModule(path string, exports map[string]any) {
	if path == "" {
		panic("hook: RegisterModule with empty module path")
	}

	modulesMu.Lock()
	defer modulesMu.Unlock()

	if _, dup := modules[path]; dup {
		panic(fmt.Sprintf("hook: RegisterModule called twice for %q", path))
	}

	exported := make(map[string]any, len(exports))
	for name, capability := range exports {
		exported[name] = capability
	}

	modules[path] = exported
}

func lookupExport(module, symbol string) (any, error) {
	modulesMu.RLock()
	defer modulesMu.RUnlock()

	exports, ok := modules[module]
	if !ok {
		return nil, fmt.Errorf("module %q: %w", module, ErrUnknownModule)
	}

	capability, ok := exports[symbol]
	if !ok {
		return nil, fmt.Errorf("module %q has no export %q: %w", module, symbol, ErrUnknownSymbol)
	}

	return capability, nil
}
