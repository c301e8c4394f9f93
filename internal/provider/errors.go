package provider

import "errors"

var (
	// ErrDuplicateProvider is returned when two providers are registered under
	// the same name. This is fatal at startup.
	ErrDuplicateProvider = errors.New("duplicate provider name")

	// ErrProviderNotFound is returned when a lookup names an unknown provider.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrInvalidProvider is returned when a provider configuration is missing
	// required fields or contains malformed values.
	ErrInvalidProvider = errors.New("invalid provider configuration")

	// ErrIncompleteEndpoints is returned when only some endpoint URLs are set
	// explicitly. Either rely on discovery or configure all of them.
	ErrIncompleteEndpoints = errors.New("incomplete endpoint configuration")
)
