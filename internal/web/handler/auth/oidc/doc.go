// Package oidc provides the handlers of the OpenID Connect login flow.
//
// Per configured provider the handler exposes:
//
//	GET /auth/oidc/:provider/login    - initiate login, redirect to the provider
//	GET /auth/oidc/:provider/callback - handle the provider redirect
//	GET /auth/oidc/:provider/logout   - end the local session
//
// Login and logout accept an optional `next` query parameter that designates
// the post-login redirect target. The target is validated against the
// provider's host allowlist; a rejected target falls back to the configured
// default landing location.
package oidc
