package flow

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/authrelay/authrelay/internal/provider"
	"github.com/authrelay/authrelay/internal/token"
)

// RawTokens carries the provider's token response before validation.
type RawTokens struct {
	IDToken     string
	AccessToken string
}

// Exchanger swaps an authorization code for the provider's tokens.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (RawTokens, error)
}

// TokenVerifier validates raw tokens and fetches userinfo claims.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, rawToken, expectedNonce string) (token.Claims, error)
	FetchUserinfo(ctx context.Context, accessToken, expectSubject string) (token.Claims, error)
}

// OAuth2Exchanger performs the code exchange through an oauth2.Config.
type OAuth2Exchanger struct {
	oauth oauth2.Config
}

// NewOAuth2Exchanger builds the exchanger for one provider.
func NewOAuth2Exchanger(cfg *provider.Config, endpoint oauth2.Endpoint) *OAuth2Exchanger {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	return &OAuth2Exchanger{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: string(cfg.ClientSecret),
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
	}
}

// AuthCodeURL builds the provider's authorization URL carrying state and
// nonce.
func (e *OAuth2Exchanger) AuthCodeURL(state, nonce string) string {
	return e.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("nonce", nonce))
}

// Exchange swaps the authorization code for tokens.
func (e *OAuth2Exchanger) Exchange(ctx context.Context, code string) (RawTokens, error) {
	oauth2Token, err := e.oauth.Exchange(ctx, code)
	if err != nil {
		return RawTokens{}, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return RawTokens{}, fmt.Errorf("token response carries no id_token")
	}

	return RawTokens{
		IDToken:     rawIDToken,
		AccessToken: oauth2Token.AccessToken,
	}, nil
}
