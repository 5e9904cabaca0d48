package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListUsers returns one page of accounts.
func (c *Client) ListUsers(ctx context.Context, p ListUsersParams) (*UserListResponse, error) {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Role != "" {
		q.Set("role", p.Role)
	}

	path := "/api/admin/users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out UserListResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var out UserResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/users/"+url.PathEscape(id), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) CreateUser(ctx context.Context, req AdminCreateUserRequest) (*User, error) {
	var out UserResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/admin/users", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, req AdminUpdateUserRequest) (*User, error) {
	var out UserResponse
	if err := c.doJSON(ctx, http.MethodPut, "/api/admin/users/"+url.PathEscape(id), req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/admin/users/"+url.PathEscape(id), nil, nil, http.StatusOK)
}

// Stats returns account statistics.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out StatsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/stats", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.Statistics, nil
}
