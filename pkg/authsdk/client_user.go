package authsdk

import (
	"context"
	"net/http"
)

// Profile returns the logged-in user's account.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var out UserResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/user/profile", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateProfile changes the logged-in user's name and email.
func (c *Client) UpdateProfile(ctx context.Context, req ProfileUpdateRequest) (*User, error) {
	var out UserResponse
	if err := c.doJSON(ctx, http.MethodPut, "/api/user/profile", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ChangePassword changes a local account's password.
func (c *Client) ChangePassword(ctx context.Context, req PasswordChangeRequest) error {
	return c.doJSON(ctx, http.MethodPut, "/api/user/password", req, nil, http.StatusOK)
}
