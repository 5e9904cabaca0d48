package authsdk

import (
	"context"
	"net/http"
)

// Register creates a local account and logs the client in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	c.CSRFToken = out.CSRFToken
	return &out, nil
}

// Login authenticates with local or directory credentials.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	c.CSRFToken = out.CSRFToken
	return &out, nil
}

// LoginOAuth exchanges a broker assertion for a session.
func (c *Client) LoginOAuth(ctx context.Context, assertion string) (*AuthResponse, error) {
	var out AuthResponse
	req := OAuthLoginRequest{Assertion: assertion}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/oauth", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	c.CSRFToken = out.CSRFToken
	return &out, nil
}

// Logout ends the session. It succeeds without a session too.
func (c *Client) Logout(ctx context.Context) error {
	c.CSRFToken = ""
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil, http.StatusOK)
}

// Session reports whether the client is logged in.
func (c *Client) Session(ctx context.Context) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/session", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
