package provider_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authrelay/authrelay/internal/provider"
)

func validConfig() provider.Config {
	return provider.Config{
		IssuerURL:    "https://idp.example.com/realms/demo",
		ClientID:     "my-client",
		ClientSecret: "s3cr3t",
		RedirectURL:  "https://app.local/auth/oidc/keycloak/callback",
	}
}

func TestRegistryLookupReturnsExactProvider(t *testing.T) {
	keycloak := validConfig()
	okta := validConfig()
	okta.ClientID = "other-client"
	okta.IssuerURL = "https://example.okta.com"

	r, err := provider.NewRegistry(map[string]provider.Config{
		"keycloak": keycloak,
		"okta":     okta,
	})
	require.NoError(t, err)

	got, err := r.Lookup("keycloak")
	require.NoError(t, err)
	assert.Equal(t, "keycloak", got.Name)
	assert.Equal(t, "my-client", got.ClientID)

	got, err = r.Lookup("okta")
	require.NoError(t, err)
	assert.Equal(t, "okta", got.Name)
	assert.Equal(t, "other-client", got.ClientID)
}

func TestRegistryLookupUnknown(t *testing.T) {
	r, err := provider.NewRegistry(nil)
	require.NoError(t, err)

	_, err = r.Lookup("nope")
	assert.ErrorIs(t, err, provider.ErrProviderNotFound)
}

func TestRegisterDuplicateName(t *testing.T) {
	r, err := provider.NewRegistry(nil)
	require.NoError(t, err)

	first := validConfig()
	require.NoError(t, r.Register("keycloak", &first))

	second := validConfig()
	err = r.Register("keycloak", &second)
	assert.ErrorIs(t, err, provider.ErrDuplicateProvider)
}

func TestRegisterEmptyName(t *testing.T) {
	r, err := provider.NewRegistry(nil)
	require.NoError(t, err)

	cfg := validConfig()
	assert.ErrorIs(t, r.Register("", &cfg), provider.ErrInvalidProvider)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*provider.Config)
		wantErr error
	}{
		{
			name:   "valid",
			mutate: func(*provider.Config) {},
		},
		{
			name:    "missing client id",
			mutate:  func(c *provider.Config) { c.ClientID = "" },
			wantErr: provider.ErrInvalidProvider,
		},
		{
			name:    "missing client secret",
			mutate:  func(c *provider.Config) { c.ClientSecret = "" },
			wantErr: provider.ErrInvalidProvider,
		},
		{
			name:    "missing issuer",
			mutate:  func(c *provider.Config) { c.IssuerURL = "" },
			wantErr: provider.ErrInvalidProvider,
		},
		{
			name:    "issuer not a url",
			mutate:  func(c *provider.Config) { c.IssuerURL = "not a url" },
			wantErr: provider.ErrInvalidProvider,
		},
		{
			name: "partial endpoint override",
			mutate: func(c *provider.Config) {
				c.TokenEndpoint = "https://idp.example.com/token"
			},
			wantErr: provider.ErrIncompleteEndpoints,
		},
		{
			name: "complete endpoint override",
			mutate: func(c *provider.Config) {
				c.AuthorizationEndpoint = "https://idp.example.com/auth"
				c.TokenEndpoint = "https://idp.example.com/token"
				c.UserinfoEndpoint = "https://idp.example.com/userinfo"
				c.JWKSURL = "https://idp.example.com/certs"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Name = "test"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestClientSecretRedaction(t *testing.T) {
	cfg := validConfig()

	assert.Equal(t, provider.RedactedSecret, cfg.ClientSecret.String())

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "s3cr3t")
}
