package http

import (
	"net/http"

	"github.com/gitsumitsinghpw/auth-app/pkg/authsdk"
	"github.com/gitsumitsinghpw/auth-app/pkg/httpx"
	"github.com/gitsumitsinghpw/auth-app/pkg/ratelimit"
)

// DevHandler serves /api/dev. Only registered outside production.
type DevHandler struct {
	Limiter   *ratelimit.Limiter
	Directory DirectoryLister
}

// RateLimitStatus godoc
//
//	@Summary		Rate limit status for the caller
//	@Description	Development only. Defaults to the login action.
//	@Tags			Development
//	@Produce		json
//	@Param			action	query		string	false	"login, register, passwordReset, api or default"
//	@Success		200		{object}	authsdk.RateLimitStatus
//	@Router			/api/dev/rate-limits [get].
func (h *DevHandler) RateLimitStatus(w http.ResponseWriter, r *http.Request) {
	action := ratelimit.Action(r.URL.Query().Get("action"))
	if action == "" {
		action = ratelimit.ActionLogin
	}

	res := h.Limiter.Info(r.Context(), action, ratelimit.FingerprintFromRequest(r))
	httpx.WriteJSON(w, http.StatusOK, authsdk.RateLimitStatus{
		Success:       true,
		Action:        string(action),
		Allowed:       res.Allowed,
		Limit:         res.Limit,
		Remaining:     res.Remaining,
		TotalAttempts: res.TotalAttempts,
		ResetTime:     res.ResetAt,
	})
}

// ResetRateLimits godoc
//
//	@Summary	Reset the caller's rate limits
//	@Tags		Development
//	@Produce	json
//	@Success	200	{object}	authsdk.MessageResponse
//	@Router		/api/dev/rate-limits/reset [post].
func (h *DevHandler) ResetRateLimits(w http.ResponseWriter, r *http.Request) {
	if err := h.Limiter.ResetAll(r.Context(), ratelimit.FingerprintFromRequest(r)); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
		Success: true,
		Message: "Rate limits reset for this client",
	})
}

// ClearRateLimits godoc
//
//	@Summary	Clear every rate limit record
//	@Tags		Development
//	@Produce	json
//	@Success	200	{object}	authsdk.MessageResponse
//	@Router		/api/dev/rate-limits [delete].
func (h *DevHandler) ClearRateLimits(w http.ResponseWriter, r *http.Request) {
	if err := h.Limiter.Clear(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
		Success: true,
		Message: "All rate limits cleared",
	})
}

// DirectoryUsers godoc
//
//	@Summary		Mock directory users
//	@Description	Lists the test accounts of the mock directory. Passwords are not returned.
//	@Tags			Development
//	@Produce		json
//	@Success		200	{object}	authsdk.DirectoryUsersResponse
//	@Failure		404	{object}	authsdk.ErrorResponse	"no mock directory"
//	@Router			/api/dev/ldap-users [get].
func (h *DevHandler) DirectoryUsers(w http.ResponseWriter, r *http.Request) {
	if h.Directory == nil {
		httpx.WriteJSON(w, http.StatusNotFound, authsdk.ErrorResponse{Message: "Mock directory is not enabled"})
		return
	}

	entries := h.Directory.Entries()
	users := make([]authsdk.DirectoryUser, 0, len(entries))
	for _, e := range entries {
		users = append(users, authsdk.DirectoryUser{
			Username: e.UID,
			Email:    e.Mail,
			Name:     e.CN,
			Role:     e.Role,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.DirectoryUsersResponse{Success: true, Users: users})
}
