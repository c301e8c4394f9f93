package provider

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// RedactedSecret replaces client secrets in string and JSON output.
const RedactedSecret = "[REDACTED: client secret]"

// ClientSecret is an OAuth2 client secret that redacts itself when printed or
// serialized, so secrets never end up in logs or config dumps.
type ClientSecret string

// String redacts the client secret.
func (ClientSecret) String() string {
	return RedactedSecret
}

// MarshalJSON redacts the client secret.
func (ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedSecret) //nolint: wrapcheck
}

// MarshalText redacts the client secret in text encodings, TOML included.
func (ClientSecret) MarshalText() ([]byte, error) {
	return []byte(RedactedSecret), nil
}

// Config is the immutable per-provider configuration. It is created when the
// registry is built at startup and never mutated by request handling.
type Config struct {
	// Name is the unique registry key, filled in from the config map key.
	Name string `toml:"-" validate:"required"`

	// IssuerURL is the provider's issuer identifier. It is used for OIDC
	// discovery and must equal the iss claim of every accepted ID token.
	IssuerURL string `validate:"required,url"`

	// ClientID is the OAuth2 client identifier.
	ClientID string `validate:"required"`

	// ClientSecret is the OAuth2 client secret.
	ClientSecret ClientSecret `validate:"required"`

	// RedirectURL is the callback URL registered with the provider.
	RedirectURL string `validate:"required,url"`

	// AuthorizationEndpoint, TokenEndpoint, UserinfoEndpoint and JWKSURL may
	// be set as a complete group to skip OIDC discovery. When empty they are
	// filled from the issuer's discovery document.
	AuthorizationEndpoint string `validate:"omitempty,url"`
	TokenEndpoint         string `validate:"omitempty,url"`
	UserinfoEndpoint      string `validate:"omitempty,url"`
	JWKSURL               string `validate:"omitempty,url"`

	// Scopes are the OAuth2 scopes to request (openid is always added).
	Scopes []string

	// AllowedRedirectHosts lists the hostnames an absolute `next` redirect
	// target may point at. Relative targets are always allowed.
	AllowedRedirectHosts []string

	// RedirectRequiresHTTPS rejects http `next` targets when true.
	RedirectRequiresHTTPS bool

	// GroupsClaim is the claim name holding the user's groups (default "groups").
	GroupsClaim string

	// LoginHook, LogoutHook and UserHook are optional hook references of the
	// form "<module-path>:<symbol>". Empty means no-op notification hooks and
	// the built-in default user mapping.
	LoginHook  string
	LogoutHook string
	UserHook   string
}

// use a single instance, it caches struct metadata
var validate = validator.New()

// Validate checks the provider configuration for completeness. Called during
// registry construction, before the service accepts traffic.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrapf(ErrInvalidProvider, "provider %q: %v", c.Name, err)
	}

	// Explicit endpoints come as a complete set or not at all. A partial set
	// means half the flow would silently use discovery while the other half
	// uses the override.
	explicit := 0

	for _, ep := range []string{c.AuthorizationEndpoint, c.TokenEndpoint, c.UserinfoEndpoint, c.JWKSURL} {
		if ep != "" {
			explicit++
		}
	}

	if explicit != 0 && explicit != 4 {
		return errors.Wrapf(ErrIncompleteEndpoints, "provider %q", c.Name)
	}

	return nil
}

// DiscoveryRequired reports whether endpoint URLs must be obtained from the
// issuer's discovery document.
func (c *Config) DiscoveryRequired() bool {
	return c.AuthorizationEndpoint == ""
}
