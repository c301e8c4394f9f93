// Package token validates ID tokens and userinfo responses received from an
// OpenID Connect provider.
//
// Signature verification is delegated to a KeySet (backed by the provider's
// remote JWKS in production, which refreshes itself once when it encounters
// an unknown key id). Claim validation is done here so every failure carries
// a precise Kind: expired, bad-signature, bad-audience, bad-issuer, bad-nonce
// or malformed. Callers surface all of them to the end user as one generic
// authentication failure and keep the Kind for logging.
package token
