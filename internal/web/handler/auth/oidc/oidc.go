package oidc

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authrelay/authrelay/internal/config"
	"github.com/authrelay/authrelay/internal/flow"
	"github.com/authrelay/authrelay/internal/web/handler"
	"github.com/authrelay/authrelay/internal/web/session"
)

const (
	// LoginPath initiates the login flow for one provider.
	LoginPath = handler.RootPath + "auth/oidc/:provider/login"

	// CallbackPath receives the provider redirect.
	CallbackPath = handler.RootPath + "auth/oidc/:provider/callback"

	// LogoutPath ends the local session.
	LogoutPath = handler.RootPath + "auth/oidc/:provider/logout"

	// AttemptCookieName carries the login attempt ID across the provider
	// round trip.
	AttemptCookieName = "login_attempt"
)

// Service is the OIDC handler service.
type Service struct {
	cfg *config.Config
	svc *flow.Service
}

// Handler is the OIDC handler.
var Handler = Service{}

// Init initializes the OIDC handler and registers its routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, svc *flow.Service) {
	if app == nil || cfg == nil || svc == nil {
		log.Fatal().Msg(handler.ErrNilACFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.svc = svc

	app.Get(LoginPath, s.Login)
	app.Get(CallbackPath, s.Callback)
	app.Get(LogoutPath, s.Logout)
}

// Login initiates the login flow: it creates a login attempt and redirects
// the browser to the provider's authorization URL.
func (s *Service) Login(c *fiber.Ctx) error {
	providerName := c.Params("provider")

	authURL, attemptID, err := s.svc.Begin(providerName, c.Query("next"))
	if err != nil {
		if errors.Is(err, flow.ErrUnknownProvider) {
			return c.Status(fiber.StatusNotFound).SendString("Unknown provider")
		}

		log.Error().Err(err).Str("provider", providerName).Msg("failed to initiate login")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	c.Cookie(s.newCookie(AttemptCookieName, attemptID, int(s.cfg.Auth.AttemptTTL.Seconds())))

	return c.Redirect(authURL)
}

// Callback handles the provider redirect: it completes the login attempt,
// establishes the local session and redirects to the validated target.
func (s *Service) Callback(c *fiber.Ctx) error {
	providerName := c.Params("provider")
	attemptID := c.Cookies(AttemptCookieName)

	c.Cookie(s.newCookie(AttemptCookieName, "", -1))

	// The provider answered with an error instead of an authorization code.
	if providerErr := c.Query("error"); providerErr != "" {
		err := s.svc.Abort(providerName, attemptID, providerErr)
		if errors.Is(err, flow.ErrUnknownProvider) {
			return c.Status(fiber.StatusNotFound).SendString("Unknown provider")
		}

		log.Warn().Err(err).Str("provider", providerName).Msg("login failed")

		return c.Status(fiber.StatusUnauthorized).SendString("Authentication failed")
	}

	state := c.Query("state")
	code := c.Query("code")

	if state == "" || code == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid callback parameters")
	}

	user, target, err := s.svc.Complete(context.Background(), providerName, attemptID, state, code)
	if err != nil {
		if errors.Is(err, flow.ErrUnknownProvider) {
			return c.Status(fiber.StatusNotFound).SendString("Unknown provider")
		}

		log.Warn().Err(err).Str("provider", providerName).
			Str("reason", string(flow.ReasonOf(err))).Msg("login failed")

		return c.Status(fiber.StatusUnauthorized).SendString("Authentication failed")
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	userSession := &session.Data{
		User:         *user,
		ProviderName: providerName,
	}

	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	c.Cookie(s.newCookie(session.CookieName, sessionID, int(s.cfg.Webserver.Session.ExpiryTime.Seconds())))

	log.Info().Str("provider", providerName).Str("username", user.Username).Msg("user logged in")

	return c.Redirect(target)
}

// Logout invalidates the local session and redirects to the validated
// post-logout target.
func (s *Service) Logout(c *fiber.Ctx) error {
	providerName := c.Params("provider")

	target, err := s.svc.Logout(context.Background(), providerName, c.Query("next"))
	if err != nil {
		if errors.Is(err, flow.ErrUnknownProvider) {
			return c.Status(fiber.StatusNotFound).SendString("Unknown provider")
		}

		log.Error().Err(err).Str("provider", providerName).Msg("logout failed")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	if sessionID := c.Cookies(session.CookieName); sessionID != "" {
		if err := session.Destroy(sessionID); err != nil {
			log.Error().Err(err).Msg("failed to delete session")
		}
	}

	c.Cookie(s.newCookie(session.CookieName, "", -1))

	return c.Redirect(target)
}

func (s *Service) newCookie(name, value string, maxAge int) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		MaxAge:   maxAge,
		Secure:   !s.cfg.DevMode,
		HTTPOnly: true,
		SameSite: "Lax",
	}
}
