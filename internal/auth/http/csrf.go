package http

import (
	"net/http"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/service"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/session"
	"github.com/gitsumitsinghpw/auth-app/pkg/authsdk"
	"github.com/gitsumitsinghpw/auth-app/pkg/httpx"
)

// requireCSRF checks the X-CSRF-Token header against the session's account.
// Requests without a session pass through so the handler answers 401.
func requireCSRF(csrf *service.CSRFService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := session.FromContext(r.Context())
			if !d.IsLoggedIn || d.User == nil {
				next.ServeHTTP(w, r)
				return
			}
			if err := csrf.Verify(r.Header.Get(authsdk.CSRFHeader), d.User.ID); err != nil {
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
