package http

import (
	"net/http"
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/service"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/session"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/validate"
	"github.com/gitsumitsinghpw/auth-app/pkg/authsdk"
	"github.com/gitsumitsinghpw/auth-app/pkg/httpx"
	"github.com/gitsumitsinghpw/auth-app/pkg/slogx"
)

type UserHandler struct {
	Accounts *service.AccountService
	Sessions *session.Manager
}

// caller returns the logged-in account id, answering 401 when there is none.
func caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	d := session.FromContext(r.Context())
	if !d.IsLoggedIn || d.User == nil {
		writeUnauthorized(w)
		return "", false
	}
	return d.User.ID, true
}

// Profile godoc
//
//	@Summary		Get own profile
//	@Tags			User
//	@Produce		json
//	@Security		SessionCookie
//	@Success		200	{object}	authsdk.UserResponse
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Router			/api/user/profile [get].
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	a, err := h.Accounts.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.UserResponse{Success: true, User: toUser(a, time.Now())})
}

// UpdateProfile godoc
//
//	@Summary		Update own profile
//	@Description	Changes name and email. The session summary is refreshed.
//	@Tags			User
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			X-CSRF-Token	header		string	true	"CSRF token from login"
//	@Param			body	body		authsdk.ProfileUpdateRequest	true	"Profile"
//	@Success		200		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		403		{object}	authsdk.ErrorResponse	"invalid CSRF token"
//	@Failure		409		{object}	authsdk.ErrorResponse	"email taken"
//	@Router			/api/user/profile [put].
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	var req authsdk.ProfileUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := validate.ValidateProfile(validate.Profile{Name: req.Name, Email: req.Email})
	if err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.Accounts.UpdateProfile(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary := a.Summary()
	if _, err := h.Sessions.Update(w, r, func(d *session.Data) { d.User = &summary }); err != nil {
		slogx.FromContext(r.Context()).Warn("failed to refresh session after profile update", "error", err)
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.UserResponse{
		Success: true,
		Message: "Profile updated successfully",
		User:    toUser(a, time.Now()),
	})
}

// ChangePassword godoc
//
//	@Summary		Change own password
//	@Description	Local accounts only
//	@Tags			User
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			X-CSRF-Token	header		string	true	"CSRF token from login"
//	@Param			body	body		authsdk.PasswordChangeRequest	true	"Passwords"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		403		{object}	authsdk.ErrorResponse	"invalid CSRF token"
//	@Failure		429		{object}	authsdk.ErrorResponse
//	@Router			/api/user/password [put].
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	var req authsdk.PasswordChangeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := validate.ValidatePasswordChange(validate.PasswordChange{
		CurrentPassword:    req.CurrentPassword,
		NewPassword:        req.NewPassword,
		ConfirmNewPassword: req.ConfirmNewPassword,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Accounts.ChangePassword(r.Context(), id, in); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
		Success: true,
		Message: "Password changed successfully",
	})
}
