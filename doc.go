// Package main provides the entry point for the authrelay service.
// authrelay is an OpenID Connect relying party: it drives the
// authorization-code flow against configured identity providers, validates
// the returned tokens, provisions local user accounts from their claims and
// manages the resulting browser sessions.
package main
