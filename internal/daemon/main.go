package daemon

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/storage"
	storagememory "github.com/gofiber/storage/memory/v2"
	storagemysql "github.com/gofiber/storage/mysql/v2"
	storagepostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/authrelay/authrelay/internal/config"
	"github.com/authrelay/authrelay/internal/db/dsn"
	"github.com/authrelay/authrelay/internal/db/models"
	"github.com/authrelay/authrelay/internal/flow"
	"github.com/authrelay/authrelay/internal/hook"
	"github.com/authrelay/authrelay/internal/provider"
	"github.com/authrelay/authrelay/internal/token"
	"github.com/authrelay/authrelay/internal/users"
	"github.com/authrelay/authrelay/internal/web"
	"github.com/authrelay/authrelay/internal/web/session"
)

// BuiltinHookModule is the module path under which the built-in hook
// capabilities are registered.
const BuiltinHookModule = "authrelay/hooks"

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start runs the Daemon's web service until a shutdown signal arrives.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
// Any configuration problem, an unknown provider setting, a malformed hook
// reference or a failing discovery, is fatal: the service never starts with
// a partially valid setup.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db := openDatabase(cfg)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.UserGroup{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	store := users.NewGormStore(db)

	session.Init(newStorage(cfg, "sessions"))

	registry, err := provider.NewRegistry(cfg.Auth.Providers)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid provider configuration")
	}

	hook.RegisterModule(BuiltinHookModule, map[string]any{
		"SyncGroups": users.GroupSyncMapper(store, "", ""),
	})

	attempts := flow.NewAttemptStore(newStorage(cfg, "login_attempts"), cfg.Auth.AttemptTTL)

	providers := buildProviders(cfg, registry, store)

	flowSvc := flow.NewService(providers, attempts, store, cfg.Auth.DefaultLandingURL)

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, flowSvc),
	}
}

// buildProviders wires every registered provider: endpoint discovery, key
// set, token validator, code exchanger and resolved hook capabilities.
func buildProviders(cfg *config.Config, registry *provider.Registry, store users.Store) map[string]*flow.Provider {
	ctx := context.Background()
	resolver := hook.NewResolver()
	providers := make(map[string]*flow.Provider, len(registry.Names()))

	for _, name := range registry.Names() {
		p, err := registry.Lookup(name)
		if err != nil {
			log.Fatal().Err(err).Str("provider", name).Msg("provider vanished from registry")
		}

		endpoint, userinfoURL, jwksURL := resolveEndpoints(ctx, p)

		validator := token.NewValidator(token.ValidatorConfig{
			Provider:         p,
			Keys:             token.NewRemoteKeySet(ctx, jwksURL),
			UserinfoEndpoint: userinfoURL,
		})

		exchanger := flow.NewOAuth2Exchanger(p, endpoint)

		login, err := resolver.Login(p.LoginHook)
		if err != nil {
			log.Fatal().Err(err).Str("provider", name).Msg("invalid login hook reference")
		}

		logout, err := resolver.Logout(p.LogoutHook)
		if err != nil {
			log.Fatal().Err(err).Str("provider", name).Msg("invalid logout hook reference")
		}

		mapUser := defaultMapping(p, store)

		if p.UserHook != "" {
			if mapUser, err = resolver.User(p.UserHook); err != nil {
				log.Fatal().Err(err).Str("provider", name).Msg("invalid user mapping hook reference")
			}
		}

		providers[name] = &flow.Provider{
			Config:       p,
			AuthURL:      exchanger.AuthCodeURL,
			Exchanger:    exchanger,
			Verifier:     validator,
			NotifyLogin:  login,
			NotifyLogout: logout,
			MapUser:      mapUser,
		}

		log.Info().Str("provider", name).Msg("identity provider initialized")
	}

	return providers
}

// defaultMapping picks the built-in mapping for providers without a user
// hook: plain get-or-create by email, or the group syncing variant when a
// groups claim is configured.
func defaultMapping(p *provider.Config, store users.Store) hook.UserMapping {
	if p.GroupsClaim != "" {
		return users.GroupSyncMapper(store, p.GroupsClaim, "")
	}

	return users.DefaultMapper(store)
}

// resolveEndpoints returns the OAuth2 endpoint pair, the userinfo URL and
// the JWKS URL, either from the provider's explicit configuration or from
// the issuer's discovery document.
func resolveEndpoints(ctx context.Context, p *provider.Config) (oauth2.Endpoint, string, string) {
	if !p.DiscoveryRequired() {
		return oauth2.Endpoint{
			AuthURL:  p.AuthorizationEndpoint,
			TokenURL: p.TokenEndpoint,
		}, p.UserinfoEndpoint, p.JWKSURL
	}

	discovered, err := oidc.NewProvider(ctx, p.IssuerURL)
	if err != nil {
		log.Fatal().Err(err).Str("provider", p.Name).Msg("issuer discovery failed")
	}

	var doc struct {
		JWKSURL          string `json:"jwks_uri"`
		UserinfoEndpoint string `json:"userinfo_endpoint"`
	}

	if err := discovered.Claims(&doc); err != nil {
		log.Fatal().Err(err).Str("provider", p.Name).Msg("malformed discovery document")
	}

	return discovered.Endpoint(), doc.UserinfoEndpoint, doc.JWKSURL
}

// openDatabase connects gorm with the driver selected by the configuration.
func openDatabase(cfg *config.Config) *gorm.DB {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		dialector = gormmysql.Open(dsn.Create(cfg))
	case config.EnginePostgres:
		dialector = gormpostgres.Open(dsn.Create(cfg))
	case config.EngineSQLite:
		dialector = sqlite.Open(dsn.Create(cfg))
	default:
		log.Fatal().Str("engine", cfg.DB.GormEngine).Msg("unknown database engine")
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	return db
}

// newStorage creates the TTL key-value storage backend used for sessions and
// login attempts. MySQL and Postgres share the relational database; SQLite
// deployments keep this state in memory.
func newStorage(cfg *config.Config, table string) storage.Storage {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return storagemysql.New(storagemysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         table,
		})
	case config.EnginePostgres:
		return storagepostgres.New(storagepostgres.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         table,
		})
	default:
		return storagememory.New()
	}
}
