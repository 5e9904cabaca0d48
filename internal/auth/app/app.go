package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
	httpapi "github.com/gitsumitsinghpw/auth-app/internal/auth/http"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/service"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/session"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/store"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/store/drivers/postgres"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/store/drivers/sqlite"
	"github.com/gitsumitsinghpw/auth-app/pkg/cryptox"
	"github.com/gitsumitsinghpw/auth-app/pkg/directory"
	"github.com/gitsumitsinghpw/auth-app/pkg/httpx"
	"github.com/gitsumitsinghpw/auth-app/pkg/ratelimit"
	"github.com/gitsumitsinghpw/auth-app/pkg/slogx"
)

// BuildVersion is overridden at build time with -ldflags "-X ...".
var BuildVersion = "v0.1.0"

// memoryDSN is the shared in-memory store used when Postgres is unreachable
// in development.
const memoryDSN = "file::memory:?cache=shared"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db      store.Store
	redis   *redis.Client
	limiter *ratelimit.Limiter

	// Services
	accounts            *service.AccountService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx := context.Background()
	for _, step := range []func(context.Context) error{
		app.initDatabase,
		app.initRateLimiter,
		app.initHTTP,
	} {
		if err := step(ctx); err != nil {
			_ = app.closeStores()
			return nil, err
		}
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.limiter,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"env", app.cfg.Env,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests, stops housekeeping and closes the
// stores.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) closeStores() error {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			return err
		}
	}
	return nil
}

// initDatabase opens the configured store, applies migrations and seeds the
// development accounts.
func (app *Application) initDatabase(ctx context.Context) error {
	db, err := app.openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)

	pepper, err := cryptox.LoadPepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	hasher, err := cryptox.NewHasherWithParams(pepper, app.cfg.Argon2Params())
	if err != nil {
		return fmt.Errorf("failed to configure password hashing: %w", err)
	}
	app.accounts = &service.AccountService{Store: db, Hasher: hasher}

	if app.cfg.SeedDevAccounts {
		n, err := app.accounts.Seed(ctx, service.DevAccounts)
		if err != nil {
			return fmt.Errorf("failed to seed development accounts: %w", err)
		}
		if n > 0 {
			app.logger.Info("seeded development accounts", "count", n)
		}
	}
	return nil
}

func (app *Application) openStore(ctx context.Context) (store.Store, error) {
	if app.cfg.DatabaseDriver != "postgres" {
		return sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	db, err := postgres.NewStore(connectCtx, app.cfg.DatabaseURL)
	if err == nil {
		return db, nil
	}
	if app.cfg.IsProduction() {
		return nil, err
	}

	app.logger.Warn("postgres unreachable, falling back to in-memory store; data will not survive a restart",
		"error", err,
	)
	app.cfg.DatabaseDriver = "sqlite"
	app.cfg.SeedDevAccounts = true
	return sqlite.NewStore(memoryDSN)
}

func (app *Application) initRateLimiter(ctx context.Context) error {
	policies := ratelimit.DefaultPolicies(app.cfg.IsProduction()).WithEnv(os.Getenv)

	var st ratelimit.Store = ratelimit.NewMemoryStore()
	if app.cfg.RateLimitBackend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()

		switch {
		case err == nil:
			app.redis = client
			st = ratelimit.NewRedisStore(client, "ratelimit:")
		case app.cfg.IsProduction():
			_ = client.Close()
			return fmt.Errorf("redis ping failed: %w", err)
		default:
			_ = client.Close()
			app.logger.Warn("redis unreachable, using in-memory rate limits", "error", err)
		}
	}

	app.limiter = ratelimit.New(st, policies, ratelimit.WithLogger(app.logger))
	return nil
}

// directory picks the directory backend. The mock fills in any blank
// settings so it works out of the box.
func (app *Application) directory() (directory.Dialer, *directory.Mock, directory.Config) {
	cfg := directory.Config{
		URL:          app.cfg.LDAPURL,
		BindDN:       app.cfg.LDAPBindDN,
		BindPassword: app.cfg.LDAPBindPassword,
		SearchBase:   app.cfg.LDAPSearchBase,
		Timeout:      app.cfg.LDAPTimeout,
	}

	if app.cfg.LDAPMode == "mock" {
		if cfg.URL == "" {
			cfg.URL = "ldap://mock.directory:389"
		}
		if cfg.BindDN == "" {
			cfg.BindDN = "cn=admin,dc=example,dc=com"
		}
		if cfg.BindPassword == "" {
			cfg.BindPassword = "admin"
		}
		if cfg.SearchBase == "" {
			cfg.SearchBase = "ou=users,dc=example,dc=com"
		}
		mock := directory.NewMock(cfg)
		return mock, mock, cfg
	}

	if err := directory.ValidateConfig(cfg); err != nil {
		app.logger.Warn("directory logins will fail until configured", "error", err)
	}
	return directory.NewLDAP(cfg), nil, cfg
}

// sessionSecret returns the configured secret, or an ephemeral one in
// development.
func (app *Application) sessionSecret() ([]byte, error) {
	if app.cfg.SessionSecret != "" {
		return []byte(app.cfg.SessionSecret), nil
	}
	secret, err := cryptox.GenerateToken(cryptox.SecretSize)
	if err != nil {
		return nil, err
	}
	app.logger.Warn("SESSION_SECRET not set, using an ephemeral secret; sessions end on restart")
	return []byte(secret), nil
}

// initHTTP builds the services, the router and the server.
func (app *Application) initHTTP(_ context.Context) error {
	secure := app.cfg.IsProduction() || app.cfg.ForceHTTPS

	secret, err := app.sessionSecret()
	if err != nil {
		return fmt.Errorf("failed to generate session secret: %w", err)
	}
	sessions, err := session.NewManager(session.Config{
		Secret:     secret,
		CookieName: app.cfg.SessionCookieName,
		TTL:        app.cfg.SessionTTL,
		Secure:     secure,
	})
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	csrfSecret := secret
	if app.cfg.JWTSecret != "" {
		csrfSecret = []byte(app.cfg.JWTSecret)
	}
	csrf, err := service.NewCSRFService(csrfSecret, session.DefaultIssuer)
	if err != nil {
		return fmt.Errorf("failed to create CSRF service: %w", err)
	}

	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	dialer, mock, dirCfg := app.directory()
	router.Authenticators = service.Authenticators{
		domain.MethodLocal: &service.LocalAuthenticator{
			Store:     app.db,
			Hasher:    app.accounts.Hasher,
			OnLockout: router.Metrics.Lockout,
		},
		domain.MethodDirectory: &service.DirectoryAuthenticator{
			Dialer: dialer,
			Config: dirCfg,
			Store:  app.db,
		},
		domain.MethodOAuth: &service.OAuthResolver{Store: app.db},
	}

	if app.cfg.OAuthBrokerSecret != "" {
		broker, err := service.NewBrokerVerifier([]byte(app.cfg.OAuthBrokerSecret))
		if err != nil {
			return fmt.Errorf("failed to create OAuth broker verifier: %w", err)
		}
		router.Broker = broker
	}

	router.Sessions = sessions
	router.Limiter = app.limiter
	router.Accounts = app.accounts
	router.Admin = &service.AdminService{Accounts: app.accounts}
	router.CSRF = csrf
	router.DirectoryMode = app.cfg.LDAPMode
	router.HSTS = secure
	router.SystemLimit = httpx.BucketFromEnv("SYSTEM", httpx.SystemLimit)
	if !app.cfg.IsProduction() {
		router.Dev = true
		if mock != nil {
			router.Directory = mock
		}
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
