// Package flow orchestrates the OIDC authorization-code flow: login
// initiation, callback handling with code exchange and token validation,
// user mapping, and logout. Each login attempt is independent, keyed by a
// random attempt ID and bounded by a TTL.
package flow
