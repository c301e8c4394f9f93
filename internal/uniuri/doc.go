// Package uniuri generates cryptographically secure, URL-safe random strings.
//
// It backs every unguessable identifier in the service: OAuth2 state values,
// OIDC nonces and local session IDs. Characters are drawn uniformly from an
// alphanumeric set using rejection sampling over crypto/rand, so generated
// strings carry no modulo bias.
package uniuri
