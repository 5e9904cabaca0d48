package gate

import (
	"log/slog"
	"net/http"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/session"
	"github.com/gitsumitsinghpw/auth-app/pkg/authsdk"
	"github.com/gitsumitsinghpw/auth-app/pkg/httpx"
	"github.com/gitsumitsinghpw/auth-app/pkg/ratelimit"
	"github.com/gitsumitsinghpw/auth-app/pkg/slogx"
)

// Sessions reads and rolls session cookies.
type Sessions interface {
	Read(r *http.Request) session.Data
	Refresh(w http.ResponseWriter, d session.Data) (bool, error)
}

type Config struct {
	Sessions Sessions
	// Limiter applies the default policy to page requests. Nil disables it.
	Limiter *ratelimit.Limiter
	// HSTS adds Strict-Transport-Security.
	HSTS bool
	// OnRateLimited is called for every request rejected by Limiter.
	OnRateLimited func(action ratelimit.Action)
}

// Middleware sets security headers, limits page requests, loads the session
// into the request context and enforces Decide.
func Middleware(cfg Config) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httpx.SetSecurityHeaders(w.Header(), cfg.HSTS)
			p := r.URL.Path
			class := Classify(p)

			if cfg.Limiter != nil && !IsAPI(p) && class != Public {
				res := cfg.Limiter.Check(r.Context(), ratelimit.ActionDefault, ratelimit.FingerprintFromRequest(r))
				res.SetHeaders(w.Header())
				if !res.Allowed {
					if cfg.OnRateLimited != nil {
						cfg.OnRateLimited(ratelimit.ActionDefault)
					}
					httpx.WriteJSON(w, http.StatusTooManyRequests, authsdk.ErrorResponse{
						Message:    "Too many requests. Please try again later.",
						RetryAfter: res.RetryAfterSeconds(),
					})
					return
				}
			}

			s := cfg.Sessions.Read(r)
			if s.IsLoggedIn {
				if _, err := cfg.Sessions.Refresh(w, s); err != nil {
					slogx.FromContext(r.Context()).WarnContext(r.Context(), "session refresh failed", slog.Any("err", err))
				}
			}

			d := Decide(p, s)
			switch d.Outcome {
			case Redirect:
				http.Redirect(w, r, d.Location, http.StatusTemporaryRedirect)
				return
			case Deny:
				msg := "Unauthorized"
				if d.Status == http.StatusForbidden {
					msg = "Admin access required"
				}
				httpx.WriteJSON(w, d.Status, authsdk.ErrorResponse{Message: msg})
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithData(r.Context(), s)))
		})
	}
}
