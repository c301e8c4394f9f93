package oidc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"

	"github.com/authrelay/authrelay/internal/config"
	"github.com/authrelay/authrelay/internal/db/models"
	"github.com/authrelay/authrelay/internal/flow"
	"github.com/authrelay/authrelay/internal/provider"
	"github.com/authrelay/authrelay/internal/token"
	websess "github.com/authrelay/authrelay/internal/web/session"
)

type testExchanger struct{}

func (testExchanger) Exchange(_ context.Context, _ string) (flow.RawTokens, error) {
	return flow.RawTokens{IDToken: "raw-id-token", AccessToken: "raw-access-token"}, nil
}

type testVerifier struct{}

func (testVerifier) VerifyIDToken(_ context.Context, _, _ string) (token.Claims, error) {
	return token.Claims{"sub": "sub-123", "email": "jane@example.org"}, nil
}

func (testVerifier) FetchUserinfo(_ context.Context, _, _ string) (token.Claims, error) {
	return token.Claims{"sub": "sub-123", "email": "jane@example.org"}, nil
}

type testUserStore struct{}

func (testUserStore) GetOrCreateByEmail(_ context.Context, email string) (*models.User, error) {
	return &models.User{ID: 1, Email: email, Username: email, Active: true}, nil
}

func (testUserStore) AddToGroup(_ context.Context, _ *models.User, _ string) error {
	return nil
}

func (testUserStore) UpdateIdentity(_ context.Context, _ *models.User, _, _, _, _ string) error {
	return nil
}

func newTestConfig() *config.Config {
	return &config.Config{
		DevMode: true,
		Webserver: config.Webserver{
			URL:     "http://app.local",
			Port:    3000,
			Session: config.Session{ExpiryTime: time.Minute},
		},
		Auth: config.Auth{
			DefaultLandingURL: "/welcome",
			AttemptTTL:        time.Minute,
		},
	}
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	websess.Init(memory.New())

	store := testUserStore{}

	p := &flow.Provider{
		Config: &provider.Config{
			Name:                 "keycloak",
			IssuerURL:            "https://idp.example.org",
			ClientID:             "my-client",
			ClientSecret:         "secret",
			RedirectURL:          "http://app.local/auth/oidc/keycloak/callback",
			AllowedRedirectHosts: []string{"app.local"},
		},
		AuthURL: func(state, nonce string) string {
			return "https://idp.example.org/auth?state=" + url.QueryEscape(state)
		},
		Exchanger:    testExchanger{},
		Verifier:     testVerifier{},
		NotifyLogin:  func(context.Context, *models.User) error { return nil },
		NotifyLogout: func(context.Context) error { return nil },
		MapUser: func(ctx context.Context, userinfo, _ token.Claims) (*models.User, error) {
			return store.GetOrCreateByEmail(ctx, userinfo.Email())
		},
	}

	svc := flow.NewService(
		map[string]*flow.Provider{"keycloak": p},
		flow.NewAttemptStore(memory.New(), time.Minute),
		store,
		"/welcome",
	)

	app := fiber.New()
	handler := &Service{}
	handler.Init(app, newTestConfig(), svc)

	return app
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name && c.MaxAge >= 0 {
			return c.Value
		}
	}

	return ""
}

// doLogin initiates a login and returns the attempt cookie plus the state
// from the authorization URL.
func doLogin(t *testing.T, app *fiber.App, next string) (attemptID, state string) {
	t.Helper()

	target := "/auth/oidc/keycloak/login"
	if next != "" {
		target += "?next=" + url.QueryEscape(next)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect to provider, got status %d", resp.StatusCode)
	}

	location, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("bad authorization URL: %v", err)
	}

	if location.Host != "idp.example.org" {
		t.Fatalf("expected redirect to provider, got %s", location)
	}

	attemptID = cookieValue(resp, AttemptCookieName)
	if attemptID == "" {
		t.Fatal("expected attempt cookie to be set")
	}

	return attemptID, location.Query().Get("state")
}

func doCallback(t *testing.T, app *fiber.App, attemptID, query string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/auth/oidc/keycloak/callback?"+query, nil)
	if attemptID != "" {
		req.AddCookie(&http.Cookie{Name: AttemptCookieName, Value: attemptID})
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("callback request failed: %v", err)
	}

	return resp
}

func TestLoginUnknownProvider(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/oidc/nope/login", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown provider, got %d", resp.StatusCode)
	}
}

func TestLoginAndCallback(t *testing.T) {
	app := newTestApp(t)

	attemptID, state := doLogin(t, app, "/profile")

	resp := doCallback(t, app, attemptID, "state="+url.QueryEscape(state)+"&code=auth-code")

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect after login, got status %d", resp.StatusCode)
	}

	if got := resp.Header.Get("Location"); got != "/profile" {
		t.Fatalf("expected redirect to /profile, got %q", got)
	}

	sessionID := cookieValue(resp, websess.CookieName)
	if sessionID == "" {
		t.Fatal("expected session cookie to be set")
	}

	sessData := new(websess.Data)
	if err := sessData.Read(sessionID); err != nil {
		t.Fatalf("failed to read session: %v", err)
	}

	if sessData.User.Email != "jane@example.org" {
		t.Fatalf("unexpected session user %q", sessData.User.Email)
	}

	if sessData.ProviderName != "keycloak" {
		t.Fatalf("unexpected session provider %q", sessData.ProviderName)
	}
}

func TestCallbackForgedState(t *testing.T) {
	app := newTestApp(t)

	attemptID, _ := doLogin(t, app, "")

	resp := doCallback(t, app, attemptID, "state=forged&code=auth-code")

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged state, got %d", resp.StatusCode)
	}

	if cookieValue(resp, websess.CookieName) != "" {
		t.Fatal("no session may be established on a forged callback")
	}
}

func TestCallbackProviderError(t *testing.T) {
	app := newTestApp(t)

	attemptID, _ := doLogin(t, app, "")

	resp := doCallback(t, app, attemptID, "error=access_denied")

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for provider error, got %d", resp.StatusCode)
	}
}

func TestCallbackProviderErrorUnknownProvider(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/oidc/zzz/callback?error=access_denied", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("callback request failed: %v", err)
	}

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for an unconfigured provider, got %d", resp.StatusCode)
	}
}

func TestCallbackMissingParameters(t *testing.T) {
	app := newTestApp(t)

	attemptID, _ := doLogin(t, app, "")

	resp := doCallback(t, app, attemptID, "state=only-state")

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing code, got %d", resp.StatusCode)
	}
}

func TestCallbackWithoutAttempt(t *testing.T) {
	app := newTestApp(t)

	resp := doCallback(t, app, "", "state=abc&code=auth-code")

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a live attempt, got %d", resp.StatusCode)
	}
}

func TestRejectedNextFallsBackToLanding(t *testing.T) {
	app := newTestApp(t)

	attemptID, state := doLogin(t, app, "https://evil.example/steal")

	resp := doCallback(t, app, attemptID, "state="+url.QueryEscape(state)+"&code=auth-code")

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected login to succeed, got status %d", resp.StatusCode)
	}

	if got := resp.Header.Get("Location"); got != "/welcome" {
		t.Fatalf("expected fallback to default landing, got %q", got)
	}
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)

	attemptID, state := doLogin(t, app, "")
	resp := doCallback(t, app, attemptID, "state="+url.QueryEscape(state)+"&code=auth-code")
	sessionID := cookieValue(resp, websess.CookieName)

	req := httptest.NewRequest(http.MethodGet, "/auth/oidc/keycloak/logout", nil)
	req.AddCookie(&http.Cookie{Name: websess.CookieName, Value: sessionID})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("logout request failed: %v", err)
	}

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect after logout, got status %d", resp.StatusCode)
	}

	if got := resp.Header.Get("Location"); got != "/welcome" {
		t.Fatalf("expected redirect to default landing, got %q", got)
	}

	sessData := new(websess.Data)
	if err := sessData.Read(sessionID); err == nil && sessData.User.ID != 0 {
		t.Fatal("session must be destroyed on logout")
	}
}
