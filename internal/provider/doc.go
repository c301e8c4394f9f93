// Package provider holds per-provider OIDC configuration and the registry
// that resolves a provider name to its configuration.
//
// The registry is built once from the configuration file during startup.
// Duplicate names and invalid provider blocks are fatal configuration errors,
// raised before the service accepts traffic. After construction the registry
// is read-only and safe for concurrent lookups from every request handler.
package provider
