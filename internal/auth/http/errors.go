package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/metrics"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/service"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/validate"
	"github.com/gitsumitsinghpw/auth-app/pkg/authsdk"
	"github.com/gitsumitsinghpw/auth-app/pkg/httpx"
	"github.com/gitsumitsinghpw/auth-app/pkg/ratelimit"
	"github.com/gitsumitsinghpw/auth-app/pkg/slogx"
)

// writeError is the single place service errors become HTTP responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr   *validate.Error
		locked *service.LockedError
	)

	switch {
	case errors.As(err, &verr):
		httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ErrorResponse{
			Message: "Validation failed",
			Errors:  verr.Messages(),
		})
	case errors.Is(err, httpx.ErrBadJSON):
		httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ErrorResponse{Message: "Invalid JSON body"})
	case errors.As(err, &locked):
		until := locked.Until
		w.Header().Set("Retry-After", strconv.Itoa(locked.RetryAfter()))
		httpx.WriteJSON(w, http.StatusLocked, authsdk.ErrorResponse{
			Message:     locked.Error(),
			RetryAfter:  locked.RetryAfter(),
			LockedUntil: &until,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteJSON(w, http.StatusUnauthorized, authsdk.ErrorResponse{Message: "Invalid credentials"})
	case errors.Is(err, service.ErrAccountInactive):
		httpx.WriteJSON(w, http.StatusForbidden, authsdk.ErrorResponse{
			Message: "Account is deactivated. Please contact support.",
		})
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteJSON(w, http.StatusNotFound, authsdk.ErrorResponse{Message: "User not found"})
	case errors.Is(err, service.ErrConflict):
		httpx.WriteJSON(w, http.StatusConflict, authsdk.ErrorResponse{
			Message: "An account with this email already exists",
		})
	case errors.Is(err, service.ErrSelfAction):
		httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ErrorResponse{
			Message: "You cannot delete or demote your own account",
		})
	case errors.Is(err, service.ErrWrongPassword):
		httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ErrorResponse{Message: "Current password is incorrect"})
	case errors.Is(err, service.ErrPasswordNotManaged):
		httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ErrorResponse{
			Message: "Password changes are only available for local accounts",
		})
	case errors.Is(err, service.ErrInvalidCSRF):
		httpx.WriteJSON(w, http.StatusForbidden, authsdk.ErrorResponse{Message: "Invalid CSRF token"})
	case errors.Is(err, service.ErrUnsupportedMethod):
		httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ErrorResponse{Message: "Invalid authentication method"})
	case errors.Is(err, service.ErrUpstreamUnavailable):
		slogx.FromContext(r.Context()).Error("upstream unavailable", "error", err)
		httpx.WriteJSON(w, http.StatusServiceUnavailable, authsdk.ErrorResponse{
			Message: "Authentication service is temporarily unavailable",
		})
	default:
		slogx.FromContext(r.Context()).Error("unhandled error", "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, authsdk.ErrorResponse{Message: "Internal server error"})
	}
}

func writeRateLimited(w http.ResponseWriter, res ratelimit.Result) {
	res.SetHeaders(w.Header())
	httpx.WriteJSON(w, http.StatusTooManyRequests, authsdk.ErrorResponse{
		Message:    "Too many requests. Please try again later.",
		RetryAfter: res.RetryAfterSeconds(),
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusUnauthorized, authsdk.ErrorResponse{Message: "Unauthorized"})
}

// loginOutcome labels err for the login metrics.
func loginOutcome(err error) string {
	var locked *service.LockedError
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, &locked):
		return metrics.OutcomeLocked
	case errors.Is(err, service.ErrInvalidCredentials):
		return metrics.OutcomeInvalid
	case errors.Is(err, service.ErrAccountInactive):
		return metrics.OutcomeInactive
	case errors.Is(err, service.ErrUpstreamUnavailable):
		return metrics.OutcomeUnavailable
	}
	return metrics.OutcomeRejected
}
