package http

import (
	"net/http"

	"github.com/gitsumitsinghpw/auth-app/pkg/httpx"
	"github.com/gitsumitsinghpw/auth-app/pkg/ratelimit"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// rateLimit counts the request against action and, once the handler has
// answered, lets the policy refund it based on the status code.
func (r *Router) rateLimit(action ratelimit.Action) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if r.Limiter == nil {
				next.ServeHTTP(w, req)
				return
			}

			ctx := req.Context()
			fp := ratelimit.FingerprintFromRequest(req)
			res := r.Limiter.Check(ctx, action, fp)
			if !res.Allowed {
				r.Metrics.RateLimited(string(action))
				writeRateLimited(w, res)
				return
			}
			res.SetHeaders(w.Header())

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, req)
			r.Limiter.Update(ctx, action, fp, rec.status < http.StatusBadRequest)
		})
	}
}
