package token

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
)

// KeySet verifies the signature of a raw JWT and returns its payload.
//
// The production implementation is the provider's remote JWKS; it caches keys
// and refreshes them once when a token references an unknown key id, which
// covers provider-side key rotation without restarting the service.
type KeySet interface {
	VerifySignature(ctx context.Context, rawJWT string) (payload []byte, err error)
}

// NewRemoteKeySet returns a KeySet backed by the JWKS document at jwksURL.
// The keyset fetches lazily and keeps itself current across key rotations.
func NewRemoteKeySet(ctx context.Context, jwksURL string) KeySet {
	return oidc.NewRemoteKeySet(ctx, jwksURL)
}
