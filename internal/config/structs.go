package config

import (
	"time"

	"github.com/authrelay/authrelay/internal/logger"
	"github.com/authrelay/authrelay/internal/provider"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Auth holds the relying-party authentication settings.
type Auth struct {
	// DefaultLandingURL is where users are sent after login or logout when no
	// `next` parameter was supplied or the supplied one was rejected.
	DefaultLandingURL string

	// AttemptTTL bounds how long a login attempt may wait for the provider
	// callback before it expires.
	AttemptTTL time.Duration

	// Providers maps a provider name to its configuration. The name is the
	// registry key and appears in the login/callback/logout URLs.
	Providers map[string]provider.Config
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool    // use clean path middleware to allow multi slash requests
	DisableRecover bool    // disable recover middleware
	Domain         string  // domain name for the webserver
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // base url for the webserver
	Session        Session // session settings
}
