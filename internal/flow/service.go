package flow

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/authrelay/authrelay/internal/db/models"
	"github.com/authrelay/authrelay/internal/hook"
	"github.com/authrelay/authrelay/internal/provider"
	"github.com/authrelay/authrelay/internal/redirect"
	"github.com/authrelay/authrelay/internal/uniuri"
	"github.com/authrelay/authrelay/internal/users"
)

// Provider bundles everything the flow needs for one identity provider:
// its configuration, the code exchanger, the token verifier and the
// resolved hook capabilities. Built once at startup, read-only afterwards.
type Provider struct {
	Config *provider.Config

	// AuthURL builds the provider's authorization URL for a state/nonce pair.
	AuthURL func(state, nonce string) string

	Exchanger Exchanger
	Verifier  TokenVerifier

	NotifyLogin  hook.LoginNotify
	NotifyLogout hook.LogoutNotify
	MapUser      hook.UserMapping
}

// Service drives login attempts through the authorization-code flow.
type Service struct {
	providers      map[string]*Provider
	attempts       *AttemptStore
	users          users.Store
	defaultLanding string
}

// NewService creates the flow service over a read-only provider map.
func NewService(providers map[string]*Provider, attempts *AttemptStore, store users.Store, defaultLanding string) *Service {
	return &Service{
		providers:      providers,
		attempts:       attempts,
		users:          store,
		defaultLanding: defaultLanding,
	}
}

// Begin initiates a login: it creates a fresh attempt with unguessable state
// and nonce values, validates the requested redirect target right away, and
// returns the provider's authorization URL together with the attempt ID the
// browser must carry to the callback.
func (s *Service) Begin(providerName, next string) (authURL, attemptID string, err error) {
	p, ok := s.providers[providerName]
	if !ok {
		return "", "", fmt.Errorf("%q: %w", providerName, ErrUnknownProvider)
	}

	attempt := &Attempt{
		ID:                uniuri.NewLen(uniuri.TokenLen),
		ProviderName:      providerName,
		State:             uniuri.NewLen(uniuri.TokenLen),
		Nonce:             uniuri.NewLen(uniuri.TokenLen),
		RequestedRedirect: s.checkedTarget(p, next),
		CreatedAt:         time.Now(),
	}

	if err := s.attempts.Put(attempt); err != nil {
		return "", "", err
	}

	return p.AuthURL(attempt.State, attempt.Nonce), attempt.ID, nil
}

// Complete handles the provider callback. The attempt is consumed before
// anything else happens, so replayed callbacks find nothing; the echoed
// state is compared in constant time; only then is the code exchanged,
// tokens validated and the user mapped. On success it returns the local
// user and the post-login redirect target.
func (s *Service) Complete(ctx context.Context, providerName, attemptID, state, code string) (*models.User, string, error) {
	p, ok := s.providers[providerName]
	if !ok {
		return nil, "", fmt.Errorf("%q: %w", providerName, ErrUnknownProvider)
	}

	user, target, err := s.complete(ctx, p, attemptID, state, code)
	if err != nil {
		result := string(ReasonOf(err))
		if result == "" {
			result = "error"
		}

		loginsTotal.WithLabelValues(providerName, result).Inc()

		return nil, "", err
	}

	loginsTotal.WithLabelValues(providerName, "success").Inc()

	return user, target, nil
}

func (s *Service) complete(ctx context.Context, p *Provider, attemptID, state, code string) (*models.User, string, error) {
	attempt, err := s.attempts.Take(attemptID)
	if err != nil {
		return nil, "", failed(ReasonAttemptExpired, err)
	}

	if attempt == nil {
		return nil, "", failed(ReasonAttemptExpired, nil)
	}

	if attempt.ProviderName != p.Config.Name {
		return nil, "", failed(ReasonStateMismatch, fmt.Errorf("attempt belongs to provider %q", attempt.ProviderName))
	}

	if subtle.ConstantTimeCompare([]byte(attempt.State), []byte(state)) != 1 {
		return nil, "", failed(ReasonStateMismatch, nil)
	}

	raw, err := p.Exchanger.Exchange(ctx, code)
	if err != nil {
		return nil, "", failed(ReasonExchangeFailed, err)
	}

	idClaims, err := p.Verifier.VerifyIDToken(ctx, raw.IDToken, attempt.Nonce)
	if err != nil {
		return nil, "", failed(ReasonBadToken, err)
	}

	userinfo, err := p.Verifier.FetchUserinfo(ctx, raw.AccessToken, idClaims.Subject())
	if err != nil {
		return nil, "", failed(ReasonBadToken, err)
	}

	user, err := p.MapUser(ctx, userinfo, idClaims)
	if err != nil {
		if errors.Is(err, hook.ErrAccessDenied) {
			return nil, "", failed(ReasonAccessDenied, err)
		}

		return nil, "", failed(ReasonMappingFailed, err)
	}

	if !user.Active {
		return nil, "", failed(ReasonAccessDenied, fmt.Errorf("account %s is deactivated", user.Email))
	}

	if err := s.users.UpdateIdentity(ctx, user, p.Config.Name,
		idClaims.Subject(), userinfo.String("given_name"), userinfo.String("family_name")); err != nil {
		log.Error().Err(err).Str("provider", p.Config.Name).Msg("failed to record login identity")
	}

	if err := p.NotifyLogin(ctx, user); err != nil {
		log.Error().Err(err).Str("provider", p.Config.Name).Msg("login notification hook failed")
	}

	target := attempt.RequestedRedirect
	if target == "" {
		target = s.defaultLanding
	}

	return user, target, nil
}

// Abort discards the attempt after the provider reported an error instead of
// an authorization code. The returned error always carries
// ReasonProviderError.
func (s *Service) Abort(providerName, attemptID, providerErr string) error {
	// Check the registry before touching the counter: the provider name
	// comes from the request path and must not become a metric label
	// unless it names a configured provider.
	if _, ok := s.providers[providerName]; !ok {
		return fmt.Errorf("%q: %w", providerName, ErrUnknownProvider)
	}

	if err := s.attempts.Discard(attemptID); err != nil {
		log.Error().Err(err).Msg("failed to discard login attempt")
	}

	loginsTotal.WithLabelValues(providerName, string(ReasonProviderError)).Inc()

	return failed(ReasonProviderError, fmt.Errorf("provider reported %q", providerErr))
}

// Logout invokes the provider's logout-notification hook (best-effort) and
// returns the validated post-logout redirect target. Invalidating the local
// session is the caller's job.
func (s *Service) Logout(ctx context.Context, providerName, next string) (string, error) {
	p, ok := s.providers[providerName]
	if !ok {
		return "", fmt.Errorf("%q: %w", providerName, ErrUnknownProvider)
	}

	if err := p.NotifyLogout(ctx); err != nil {
		log.Error().Err(err).Str("provider", providerName).Msg("logout notification hook failed")
	}

	logoutsTotal.WithLabelValues(providerName).Inc()

	target := s.checkedTarget(p, next)
	if target == "" {
		target = s.defaultLanding
	}

	return target, nil
}

// checkedTarget runs the candidate through the redirect validator. A
// rejected target is logged and dropped, never fatal.
func (s *Service) checkedTarget(p *Provider, next string) string {
	if next == "" {
		return ""
	}

	target, err := redirect.Validate(next, p.Config.AllowedRedirectHosts, p.Config.RedirectRequiresHTTPS)
	if err != nil {
		log.Warn().Err(err).Str("provider", p.Config.Name).Str("next", next).
			Msg("rejected redirect target, using default landing")

		return ""
	}

	return target
}
