package authsdk

import (
	"context"
	"net/http"
)

// GetLiveness checks if the service is alive.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/livez", nil, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

// GetReadiness checks if the service is ready.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/readyz", nil, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

// Health calls the public GET /api/health.
func (c *Client) Health(ctx context.Context) (*APIHealthResponse, error) {
	var health APIHealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/health", nil, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}
