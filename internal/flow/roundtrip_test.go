package flow

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/authrelay/authrelay/internal/db/models"
	"github.com/authrelay/authrelay/internal/provider"
	"github.com/authrelay/authrelay/internal/token"
)

// plainKeySet returns the payload of a compact JWS without checking the
// signature, standing in for the provider's JWKS during the fake round trip.
type plainKeySet struct{}

func (plainKeySet) VerifySignature(_ context.Context, rawJWT string) ([]byte, error) {
	parts := strings.Split(rawJWT, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("not a compact JWS")
	}

	return base64.RawURLEncoding.DecodeString(parts[1])
}

// compactJWS encodes the claims as an unsigned compact JWS for plainKeySet
// to unpack.
func compactJWS(t *testing.T, claims map[string]any) string {
	t.Helper()

	header, err := json.Marshal(map[string]string{"alg": "RS256", "typ": "JWT"})
	require.NoError(t, err)

	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	return base64.RawURLEncoding.EncodeToString(header) + "." +
		base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

// fakeIdP serves the token and userinfo endpoints of an identity provider
// over httptest. The nonce is set by the test once the login attempt exists.
type fakeIdP struct {
	server *httptest.Server
	nonce  string
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()

	idp := &fakeIdP{}

	mux := http.NewServeMux()

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}

		if err := r.ParseForm(); err != nil || r.FormValue("code") != "auth-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}

		now := time.Now()
		idToken := compactJWS(t, map[string]any{
			"iss":   idp.server.URL,
			"sub":   "sub-123",
			"aud":   "my-client",
			"exp":   now.Add(time.Hour).Unix(),
			"iat":   now.Unix(),
			"nonce": idp.nonce,
			"email": "jane@example.org",
		})

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idToken,
		})
	})

	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sub":   "sub-123",
			"email": "jane@example.org",
		})
	})

	idp.server = httptest.NewServer(mux)
	t.Cleanup(idp.server.Close)

	return idp
}

// newRoundTripService wires a real code exchanger and token validator
// against the fake provider, leaving only the signature layer stubbed.
func newRoundTripService(t *testing.T, idp *fakeIdP) (*Service, *fakeStore) {
	t.Helper()

	cfg := &provider.Config{
		Name:         "keycloak",
		IssuerURL:    idp.server.URL,
		ClientID:     "my-client",
		ClientSecret: "secret",
		RedirectURL:  "https://app.local/auth/oidc/keycloak/callback",
	}

	exchanger := NewOAuth2Exchanger(cfg, oauth2.Endpoint{
		AuthURL:  idp.server.URL + "/auth",
		TokenURL: idp.server.URL + "/token",
	})

	verifier := token.NewValidator(token.ValidatorConfig{
		Provider:         cfg,
		Keys:             plainKeySet{},
		UserinfoEndpoint: idp.server.URL + "/userinfo",
	})

	store := newFakeStore()

	p := &Provider{
		Config:       cfg,
		AuthURL:      exchanger.AuthCodeURL,
		Exchanger:    exchanger,
		Verifier:     verifier,
		NotifyLogin:  func(context.Context, *models.User) error { return nil },
		NotifyLogout: func(context.Context) error { return nil },
		MapUser: func(ctx context.Context, userinfo, _ token.Claims) (*models.User, error) {
			return store.GetOrCreateByEmail(ctx, userinfo.Email())
		},
	}

	service := NewService(map[string]*Provider{"keycloak": p},
		NewAttemptStore(memory.New(), time.Minute), store, "/welcome")

	return service, store
}

func TestRoundTripAgainstFakeProvider(t *testing.T) {
	idp := newFakeIdP(t)
	service, store := newRoundTripService(t, idp)

	authURL, attemptID, err := service.Begin("keycloak", "/profile")
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, idp.server.URL+"/auth", u.Scheme+"://"+u.Host+u.Path)

	idp.nonce = u.Query().Get("nonce")

	user, target, err := service.Complete(context.Background(), "keycloak",
		attemptID, u.Query().Get("state"), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.org", user.Email)
	assert.Equal(t, "/profile", target)
	assert.Len(t, store.users, 1)
}

func TestRoundTripNonceMismatch(t *testing.T) {
	idp := newFakeIdP(t)
	service, store := newRoundTripService(t, idp)

	authURL, attemptID, err := service.Begin("keycloak", "")
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)

	// The provider binds a different nonce into the ID token than the one
	// stored in the attempt.
	idp.nonce = "stale-nonce"

	_, _, err = service.Complete(context.Background(), "keycloak",
		attemptID, u.Query().Get("state"), "auth-code")
	require.Error(t, err)
	assert.Equal(t, ReasonBadToken, ReasonOf(err))
	assert.Empty(t, store.users)
}

func TestRoundTripRejectedCode(t *testing.T) {
	idp := newFakeIdP(t)
	service, _ := newRoundTripService(t, idp)

	authURL, attemptID, err := service.Begin("keycloak", "")
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)

	_, _, err = service.Complete(context.Background(), "keycloak",
		attemptID, u.Query().Get("state"), "stolen-code")
	require.Error(t, err)
	assert.Equal(t, ReasonExchangeFailed, ReasonOf(err))
}
