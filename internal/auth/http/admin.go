package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/service"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/session"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/validate"
	"github.com/gitsumitsinghpw/auth-app/pkg/authsdk"
	"github.com/gitsumitsinghpw/auth-app/pkg/httpx"
)

// AdminHandler serves /api/admin. The gate has already checked the admin role
// by the time any of these run.
type AdminHandler struct {
	Admin *service.AdminService
}

// List godoc
//
//	@Summary		List users
//	@Tags			Admin
//	@Produce		json
//	@Security		SessionCookie
//	@Param			page	query		int		false	"Page number"			default(1)
//	@Param			limit	query		int		false	"Page size (max 50)"	default(10)
//	@Param			search	query		string	false	"Substring of name or email"
//	@Param			role	query		string	false	"user or admin"
//	@Success		200		{object}	authsdk.UserListResponse
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Failure		403		{object}	authsdk.ErrorResponse
//	@Router			/api/admin/users [get].
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	p, err := h.Admin.List(r.Context(), service.ListQuery{
		Page:   page,
		Limit:  limit,
		Search: q.Get("search"),
		Role:   domain.Role(q.Get("role")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.UserListResponse{
		Success: true,
		Users:   toUsers(p.Accounts, time.Now()),
		Pagination: authsdk.Pagination{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      p.Total,
			TotalPages: p.TotalPages,
			HasNext:    p.HasNext(),
			HasPrev:    p.HasPrev(),
		},
	})
}

// Create godoc
//
//	@Summary		Create user
//	@Description	A password is required for local accounts and ignored otherwise
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			X-CSRF-Token	header		string	true	"CSRF token from login"
//	@Param			body	body		authsdk.AdminCreateUserRequest	true	"New account"
//	@Success		201		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		403		{object}	authsdk.ErrorResponse	"invalid CSRF token"
//	@Failure		409		{object}	authsdk.ErrorResponse
//	@Router			/api/admin/users [post].
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req authsdk.AdminCreateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := validate.ValidateAdminCreate(validate.AdminCreate{
		Name:       req.Name,
		Email:      req.Email,
		Role:       domain.Role(req.Role),
		AuthMethod: domain.AuthMethod(req.AuthMethod),
		Password:   req.Password,
		Username:   req.Username,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.Admin.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, authsdk.UserResponse{
		Success: true,
		Message: "User created successfully",
		User:    toUser(a, time.Now()),
	})
}

// Get godoc
//
//	@Summary	Get user
//	@Tags		Admin
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id	path		string	true	"Account ID"
//	@Success	200	{object}	authsdk.UserResponse
//	@Failure	404	{object}	authsdk.ErrorResponse
//	@Router		/api/admin/users/{id} [get].
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.Admin.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.UserResponse{Success: true, User: toUser(a, time.Now())})
}

// Update godoc
//
//	@Summary		Update user
//	@Description	Partial update. Admins cannot demote themselves.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			X-CSRF-Token	header		string	true	"CSRF token from login"
//	@Param			id				path		string							true	"Account ID"
//	@Param			body	body		authsdk.AdminUpdateUserRequest	true	"Fields to change"
//	@Success		200		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		403		{object}	authsdk.ErrorResponse	"invalid CSRF token"
//	@Failure		404		{object}	authsdk.ErrorResponse
//	@Failure		409		{object}	authsdk.ErrorResponse
//	@Router			/api/admin/users/{id} [put].
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req authsdk.AdminUpdateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	u := validate.AdminUpdate{
		Name:          req.Name,
		Email:         req.Email,
		IsActive:      req.IsActive,
		EmailVerified: req.EmailVerified,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		u.Role = &role
	}
	u, err := validate.ValidateAdminUpdate(u)
	if err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.Admin.Update(r.Context(), actor(r), r.PathValue("id"), u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.UserResponse{
		Success: true,
		Message: "User updated successfully",
		User:    toUser(a, time.Now()),
	})
}

// Delete godoc
//
//	@Summary	Delete user
//	@Tags		Admin
//	@Produce	json
//	@Security	SessionCookie
//	@Param		X-CSRF-Token	header		string	true	"CSRF token from login"
//	@Param		id				path		string	true	"Account ID"
//	@Success	200	{object}	authsdk.MessageResponse
//	@Failure	400	{object}	authsdk.ErrorResponse	"own account"
//	@Failure	403	{object}	authsdk.ErrorResponse	"invalid CSRF token"
//	@Failure	404	{object}	authsdk.ErrorResponse
//	@Router		/api/admin/users/{id} [delete].
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Admin.Delete(r.Context(), actor(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
		Success: true,
		Message: "User deleted successfully",
	})
}

// Stats godoc
//
//	@Summary	User statistics
//	@Tags		Admin
//	@Produce	json
//	@Security	SessionCookie
//	@Success	200	{object}	authsdk.StatsResponse
//	@Router		/api/admin/stats [get].
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Admin.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.StatsResponse{
		Success: true,
		Statistics: authsdk.Stats{
			TotalUsers:      st.Total,
			ActiveUsers:     st.Active,
			InactiveUsers:   st.Inactive,
			AdminUsers:      st.Admins,
			RegularUsers:    st.Regular,
			LockedUsers:     st.Locked,
			VerifiedUsers:   st.Verified,
			UnverifiedUsers: st.Unverified,
			RecentUsers:     st.Recent,
			AuthMethods: authsdk.AuthMethodCounts{
				Local: st.ByMethod[domain.MethodLocal],
				LDAP:  st.ByMethod[domain.MethodDirectory],
				OAuth: st.ByMethod[domain.MethodOAuth],
			},
		},
	})
}

func actor(r *http.Request) string {
	if d := session.FromContext(r.Context()); d.User != nil {
		return d.User.ID
	}
	return ""
}
