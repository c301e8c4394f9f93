package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/authrelay/authrelay/internal/provider"
)

const (
	// DefaultClockSkew is the tolerance applied to exp, iat and nbf checks.
	DefaultClockSkew = 10 * time.Second

	defaultHTTPTimeout = 10 * time.Second

	// userinfo responses larger than this are not claim sets.
	maxUserinfoBody = 1 << 20
)

// ValidatorConfig configures a Validator.
type ValidatorConfig struct {
	// Provider supplies issuer, client id and claim settings.
	Provider *provider.Config

	// Keys verifies ID token (and signed userinfo) signatures.
	Keys KeySet

	// UserinfoEndpoint is the resolved userinfo URL (from discovery or the
	// provider's explicit endpoint configuration).
	UserinfoEndpoint string

	// HTTPClient is used for the userinfo fetch. Defaults to a client with a
	// bounded timeout.
	HTTPClient *http.Client

	// ClockSkew overrides DefaultClockSkew.
	ClockSkew time.Duration

	// Now overrides the time source, for tests.
	Now func() time.Time
}

// Validator verifies tokens for one provider. Safe for concurrent use.
type Validator struct {
	cfg         *provider.Config
	keys        KeySet
	userinfoURL string
	client      *http.Client
	skew        time.Duration
	now         func() time.Time
}

// NewValidator creates a Validator for the given provider.
func NewValidator(vc ValidatorConfig) *Validator {
	v := &Validator{
		cfg:         vc.Provider,
		keys:        vc.Keys,
		userinfoURL: vc.UserinfoEndpoint,
		client:      vc.HTTPClient,
		skew:        vc.ClockSkew,
		now:         vc.Now,
	}

	if v.client == nil {
		v.client = &http.Client{Timeout: defaultHTTPTimeout}
	}

	if v.skew == 0 {
		v.skew = DefaultClockSkew
	}

	if v.now == nil {
		v.now = time.Now
	}

	return v
}

// VerifyIDToken validates a raw ID token: signature, issuer, freshness,
// audience membership and nonce binding. It returns the full claim set on
// success and a *Error carrying the specific failure kind otherwise.
func (v *Validator) VerifyIDToken(ctx context.Context, rawToken, expectedNonce string) (Claims, error) {
	if strings.Count(rawToken, ".") != 2 {
		return nil, newError(KindMalformed, "not a compact JWS")
	}

	payload, err := v.keys.VerifySignature(ctx, rawToken)
	if err != nil {
		return nil, wrapError(KindBadSignature, "signature verification failed", err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, wrapError(KindMalformed, "claims are not a JSON object", err)
	}

	if err := v.checkClaims(claims, expectedNonce); err != nil {
		return nil, err
	}

	return claims, nil
}

func (v *Validator) checkClaims(claims Claims, expectedNonce string) error {
	if iss := claims.String("iss"); iss != v.cfg.IssuerURL {
		return newError(KindBadIssuer, fmt.Sprintf("issuer %q, expected %q", iss, v.cfg.IssuerURL))
	}

	now := v.now()

	exp, ok := claims.Time("exp")
	if !ok {
		return newError(KindMalformed, "missing exp claim")
	}

	if now.After(exp.Add(v.skew)) {
		return newError(KindExpired, fmt.Sprintf("expired at %s", exp.Format(time.RFC3339)))
	}

	if iat, ok := claims.Time("iat"); ok && iat.After(now.Add(v.skew)) {
		return newError(KindMalformed, "issued in the future")
	}

	if nbf, ok := claims.Time("nbf"); ok && nbf.After(now.Add(v.skew)) {
		return newError(KindExpired, "not yet valid")
	}

	// aud is a set per the OIDC spec: membership check, not equality.
	audiences := claims.StringList("aud")
	if !contains(audiences, v.cfg.ClientID) {
		return newError(KindBadAudience, fmt.Sprintf("audience %v does not include client %q", audiences, v.cfg.ClientID))
	}

	if expectedNonce != "" && claims.String("nonce") != expectedNonce {
		return newError(KindBadNonce, "nonce does not match login attempt")
	}

	return nil
}

// FetchUserinfo retrieves and validates the userinfo claim set using the
// access token from the code exchange. The response subject must match the
// ID token's subject (token substitution defense per OIDC Core 5.3.2).
func (v *Validator) FetchUserinfo(ctx context.Context, accessToken, expectSubject string) (Claims, error) {
	if v.userinfoURL == "" {
		return nil, newError(KindMalformed, "no userinfo endpoint configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userinfoURL, nil)
	if err != nil {
		return nil, wrapError(KindMalformed, "building userinfo request", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, wrapError(KindMalformed, "userinfo request failed", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserinfoBody))
	if err != nil {
		return nil, wrapError(KindMalformed, "reading userinfo response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, newError(KindMalformed, fmt.Sprintf("userinfo endpoint returned %d", resp.StatusCode))
	}

	var claims Claims

	// Providers may sign the userinfo response (application/jwt) instead of
	// returning plain JSON.
	if strings.Contains(resp.Header.Get("Content-Type"), "application/jwt") {
		payload, err := v.keys.VerifySignature(ctx, string(body))
		if err != nil {
			return nil, wrapError(KindBadSignature, "signed userinfo verification failed", err)
		}

		body = payload
	}

	if err := json.Unmarshal(body, &claims); err != nil {
		return nil, wrapError(KindMalformed, "userinfo claims are not a JSON object", err)
	}

	if expectSubject != "" && claims.Subject() != expectSubject {
		return nil, newError(KindMalformed, "userinfo subject does not match ID token subject")
	}

	return claims, nil
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}

	return false
}
