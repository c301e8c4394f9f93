package users

import (
	"context"
	"fmt"

	"github.com/authrelay/authrelay/internal/db/models"
	"github.com/authrelay/authrelay/internal/hook"
	"github.com/authrelay/authrelay/internal/token"
)

// DefaultMapper builds the user-mapping capability used when a provider
// configures no mapping hook: look the account up by the email claim, create
// it on first login, no group side effects.
func DefaultMapper(store Store) hook.UserMapping {
	return func(ctx context.Context, userinfo, idToken token.Claims) (*models.User, error) {
		email := claimedEmail(userinfo, idToken)
		if email == "" {
			return nil, fmt.Errorf("identity carries no email claim: %w", ErrEmptyEmail)
		}

		return store.GetOrCreateByEmail(ctx, email)
	}
}

// GroupSyncMapper builds a mapping capability that additionally syncs the
// provider's groups claim into the store. When requiredGroup is non-empty
// and the claim does not contain it, the login is rejected with an
// access-denied error before any account is touched.
func GroupSyncMapper(store Store, groupsClaim, requiredGroup string) hook.UserMapping {
	if groupsClaim == "" {
		groupsClaim = "groups"
	}

	return func(ctx context.Context, userinfo, idToken token.Claims) (*models.User, error) {
		groups := userinfo.StringList(groupsClaim)
		if len(groups) == 0 {
			groups = idToken.StringList(groupsClaim)
		}

		if requiredGroup != "" && !contains(groups, requiredGroup) {
			return nil, hook.Denied(fmt.Sprintf("user is not in group %s", requiredGroup))
		}

		email := claimedEmail(userinfo, idToken)
		if email == "" {
			return nil, fmt.Errorf("identity carries no email claim: %w", ErrEmptyEmail)
		}

		user, err := store.GetOrCreateByEmail(ctx, email)
		if err != nil {
			return nil, err
		}

		for _, group := range groups {
			if err := store.AddToGroup(ctx, user, group); err != nil {
				return nil, err
			}
		}

		return user, nil
	}
}

// claimedEmail prefers the userinfo response over the ID token, matching the
// freshest claim source.
func claimedEmail(userinfo, idToken token.Claims) string {
	if email := userinfo.Email(); email != "" {
		return email
	}

	return idToken.Email()
}

func contains(list []string, want string) bool {
	for _, got := range list {
		if got == want {
			return true
		}
	}

	return false
}
