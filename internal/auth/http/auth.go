package http

import (
	"log/slog"
	"net/http"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/metrics"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/service"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/session"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/validate"
	"github.com/gitsumitsinghpw/auth-app/pkg/authsdk"
	"github.com/gitsumitsinghpw/auth-app/pkg/httpx"
	"github.com/gitsumitsinghpw/auth-app/pkg/slogx"
)

// CSRFIssuer mints the token returned with a new session.
type CSRFIssuer interface {
	Issue(accountID string) (string, error)
}

type AuthHandler struct {
	Authenticators service.Authenticators
	Accounts       *service.AccountService
	Sessions       *session.Manager
	CSRF           CSRFIssuer
	Broker         *service.BrokerVerifier
	Metrics        *metrics.Metrics
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Authenticates with local credentials (email) or the directory (username with authMethod "ldap") and sets the session cookie
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.AuthResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"validation failed"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid credentials"
//	@Failure		403		{object}	authsdk.ErrorResponse	"account deactivated"
//	@Failure		423		{object}	authsdk.ErrorResponse	"account locked"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate limited"
//	@Failure		503		{object}	authsdk.ErrorResponse	"backend unavailable"
//	@Router			/api/auth/login [post].
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	creds, err := credentialsFrom(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	method := creds.Method()
	if !h.Authenticators.Has(method) {
		writeError(w, r, service.ErrUnsupportedMethod)
		return
	}

	a, err := h.Authenticators.Authenticate(r.Context(), creds)
	h.Metrics.LoginAttempt(string(method), loginOutcome(err))
	if err != nil {
		h.noteFailure(w, r)
		writeError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("login succeeded",
		slog.String("account_id", a.ID),
		slog.String("method", string(method)),
	)
	h.issue(w, r, a, http.StatusOK, "Login successful")
}

// credentialsFrom validates req and picks the credentials variant.
func credentialsFrom(req authsdk.LoginRequest) (service.Credentials, error) {
	if domain.AuthMethod(req.AuthMethod) == domain.MethodDirectory {
		in, err := validate.ValidateDirectoryLogin(validate.DirectoryLogin{
			Username:   req.Username,
			Password:   req.Password,
			AuthMethod: domain.AuthMethod(req.AuthMethod),
		})
		if err != nil {
			return nil, err
		}
		return service.DirectoryCredentials{Username: in.Username, Password: in.Password}, nil
	}

	in, err := validate.ValidateLogin(validate.Login{
		Email:      req.Email,
		Password:   req.Password,
		AuthMethod: domain.AuthMethod(req.AuthMethod),
	})
	if err != nil {
		return nil, err
	}
	return service.LocalCredentials{Email: in.Email, Password: in.Password}, nil
}

// noteFailure records the attempt on the anonymous session.
func (h *AuthHandler) noteFailure(w http.ResponseWriter, r *http.Request) {
	now := h.Sessions.Now().UnixMilli()
	_, err := h.Sessions.Update(w, r, func(d *session.Data) {
		d.LoginAttempts++
		d.LastAttempt = now
	})
	if err != nil {
		slogx.FromContext(r.Context()).Warn("failed to record attempt on session", "error", err)
	}
}

// issue starts a session for a and answers with the user summary and a CSRF
// token.
func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, a domain.Account, status int, message string) {
	csrf, err := h.CSRF.Issue(a.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user := a.Summary()
	if _, err := h.Sessions.Create(w, user); err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.SessionIssued(string(a.Method))

	httpx.WriteJSON(w, status, authsdk.AuthResponse{
		Success:   true,
		Message:   message,
		User:      toSessionUser(user),
		CSRFToken: csrf,
	})
}

// Register godoc
//
//	@Summary		Register
//	@Description	Creates a local account and logs it in
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RegisterRequest	true	"New account"
//	@Success		201		{object}	authsdk.AuthResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"validation failed"
//	@Failure		409		{object}	authsdk.ErrorResponse	"email already registered"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate limited"
//	@Router			/api/auth/register [post].
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	in, err := validate.ValidateRegistration(validate.Registration{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.Accounts.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.issue(w, r, a, http.StatusCreated, "Registration successful")
}

// OAuth godoc
//
//	@Summary		Log in with an OAuth provider
//	@Description	Accepts an assertion signed by the OAuth broker after the provider handshake, links or creates the account and sets the session cookie
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.OAuthLoginRequest	true	"Broker assertion"
//	@Success		200		{object}	authsdk.AuthResponse
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid assertion"
//	@Failure		403		{object}	authsdk.ErrorResponse	"account deactivated"
//	@Failure		503		{object}	authsdk.ErrorResponse	"store unavailable"
//	@Router			/api/auth/oauth [post].
func (h *AuthHandler) OAuth(w http.ResponseWriter, r *http.Request) {
	if h.Broker == nil {
		http.NotFound(w, r)
		return
	}

	var req authsdk.OAuthLoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := h.Broker.Verify(req.Assertion)
	if err != nil {
		slogx.FromContext(r.Context()).Info("oauth assertion rejected", "error", err)
		h.Metrics.LoginAttempt(string(domain.MethodOAuth), metrics.OutcomeRejected)
		writeError(w, r, err)
		return
	}

	a, err := h.Authenticators.Authenticate(r.Context(), service.OAuthCredentials{Profile: profile})
	h.Metrics.LoginAttempt(string(domain.MethodOAuth), loginOutcome(err))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.issue(w, r, a, http.StatusOK, "Login successful")
}

// Logout godoc
//
//	@Summary		Log out
//	@Description	Clears the session cookie. Always succeeds. A GET redirects to /login.
//	@Tags			Authentication
//	@Produce		json
//	@Success		200	{object}	authsdk.MessageResponse
//	@Success		303	"redirect to /login"
//	@Router			/api/auth/logout [post].
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Destroy(w)
	w.Header().Set("Clear-Site-Data", `"cookies", "storage"`)

	if r.Method == http.MethodGet {
		httpx.NoCache(w)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

// Session godoc
//
//	@Summary		Current session
//	@Tags			Authentication
//	@Produce		json
//	@Success		200	{object}	authsdk.SessionResponse
//	@Router			/api/auth/session [get].
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	d := session.FromContext(r.Context())

	resp := authsdk.SessionResponse{Success: true, IsLoggedIn: d.IsLoggedIn}
	if d.IsLoggedIn && d.User != nil {
		u := toSessionUser(*d.User)
		resp.User = &u
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
