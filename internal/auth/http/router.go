package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/gate"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/metrics"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/service"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/session"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/store"
	"github.com/gitsumitsinghpw/auth-app/pkg/directory"
	"github.com/gitsumitsinghpw/auth-app/pkg/httpx"
	"github.com/gitsumitsinghpw/auth-app/pkg/ratelimit"
	"github.com/gitsumitsinghpw/auth-app/pkg/slogx"

	_ "github.com/gitsumitsinghpw/auth-app/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// DirectoryLister exposes directory records to the dev tooling.
// *directory.Mock satisfies it.
type DirectoryLister interface {
	Entries() []directory.Entry
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Sessions       *session.Manager
	Limiter        *ratelimit.Limiter
	Metrics        *metrics.Metrics
	Authenticators service.Authenticators
	Accounts       *service.AccountService
	Admin          *service.AdminService
	CSRF           *service.CSRFService

	// Broker verifies OAuth assertions. Nil disables POST /api/auth/oauth.
	Broker *service.BrokerVerifier
	// DirectoryMode is reported by /api/health ("mock", "ldap" or "").
	DirectoryMode string
	// Directory backs GET /api/dev/ldap-users when set.
	Directory DirectoryLister

	// Dev registers /api/dev routes.
	Dev bool
	// HSTS adds Strict-Transport-Security to every response.
	HSTS bool
	// SystemLimit is the token bucket for operational endpoints.
	SystemLimit httpx.BucketConfig
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		Metrics:      metrics.New(),
		SystemLimit:  httpx.SystemLimit,
	}
}

// ApplyRoutes registers every route and builds the global middleware chain.
// Call it once after the exported dependencies are set.
func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUser()
	r.registerAdmin()
	r.registerSystem()
	if r.Dev {
		r.registerDev()
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger, httpx.ClientIP),
		gate.Middleware(gate.Config{
			Sessions: r.Sessions,
			Limiter:  r.Limiter,
			HSTS:     r.HSTS,
			OnRateLimited: func(a ratelimit.Action) {
				r.Metrics.RateLimited(string(a))
			},
		}),
	}
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Auth App API
//	@version		1.0.0
//	@description	Multi-method authentication service: local credentials, a directory service (LDAP) and OAuth providers.
//	@description
//	@description				Sessions are held in a sealed HttpOnly cookie (HS256-signed, AES-GCM encrypted).
//
//	@host						localhost:3000
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						secure-auth-session
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Authenticators: r.Authenticators,
		Accounts:       r.Accounts,
		Sessions:       r.Sessions,
		CSRF:           r.CSRF,
		Broker:         r.Broker,
		Metrics:        r.Metrics,
	}

	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.Login), r.rateLimit(ratelimit.ActionLogin)))
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.Register), r.rateLimit(ratelimit.ActionRegister)))
	if r.Broker != nil {
		r.Mux.Handle("POST /api/auth/oauth",
			httpx.Chain(http.HandlerFunc(h.OAuth), r.rateLimit(ratelimit.ActionLogin)))
	}
	r.Mux.HandleFunc("POST /api/auth/logout", h.Logout)
	r.Mux.HandleFunc("GET /api/auth/logout", h.Logout)
	r.Mux.HandleFunc("GET /api/auth/session", h.Session)
}

func (r *Router) registerUser() {
	h := &UserHandler{Accounts: r.Accounts, Sessions: r.Sessions}
	csrf := requireCSRF(r.CSRF)

	r.Mux.HandleFunc("GET /api/user/profile", h.Profile)
	r.Mux.Handle("PUT /api/user/profile",
		httpx.Chain(http.HandlerFunc(h.UpdateProfile), r.rateLimit(ratelimit.ActionAPI), csrf))
	r.Mux.Handle("PUT /api/user/password",
		httpx.Chain(http.HandlerFunc(h.ChangePassword), r.rateLimit(ratelimit.ActionPasswordReset), csrf))
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{Admin: r.Admin}
	limited := func(f http.HandlerFunc) http.Handler {
		return httpx.Chain(f, r.rateLimit(ratelimit.ActionAPI))
	}
	guarded := func(f http.HandlerFunc) http.Handler {
		return httpx.Chain(f, r.rateLimit(ratelimit.ActionAPI), requireCSRF(r.CSRF))
	}

	r.Mux.Handle("GET /api/admin/users", limited(h.List))
	r.Mux.Handle("POST /api/admin/users", guarded(h.Create))
	r.Mux.Handle("GET /api/admin/users/{id}", limited(h.Get))
	r.Mux.Handle("PUT /api/admin/users/{id}", guarded(h.Update))
	r.Mux.Handle("DELETE /api/admin/users/{id}", guarded(h.Delete))
	r.Mux.Handle("GET /api/admin/stats", limited(h.Stats))
}

func (r *Router) registerDev() {
	h := &DevHandler{Limiter: r.Limiter, Directory: r.Directory}

	r.Mux.HandleFunc("GET /api/dev/rate-limits", h.RateLimitStatus)
	r.Mux.HandleFunc("POST /api/dev/rate-limits/reset", h.ResetRateLimits)
	r.Mux.HandleFunc("DELETE /api/dev/rate-limits", h.ClearRateLimits)
	r.Mux.HandleFunc("GET /api/dev/ldap-users", h.DirectoryUsers)
}

func (r *Router) registerSystem() {
	// Monitoring systems poll these; a token bucket per IP keeps them cheap.
	limit := httpx.TokenBucket(r.SystemLimit, httpx.ClientIP)

	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion), limit))
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Limiter), limit))
	r.Mux.Handle("GET /metrics",
		httpx.Chain(r.Metrics.Handler(), limit))
	r.Mux.Handle("GET /swagger/",
		httpx.Chain(httpSwagger.Handler(), limit))

	r.Mux.HandleFunc("GET /api/health", APIHealthHandler(r.buildVersion, r.store, r.DirectoryMode))
}
