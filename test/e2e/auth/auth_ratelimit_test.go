package auth_test

import (
	"net/http"
	"testing"

	"github.com/gitsumitsinghpw/auth-app/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRateLimitLogin verifies the login policy rejects a client after its
// budget of failed attempts.
func TestRateLimitLogin(t *testing.T) {
	baseURL := setupAuthContainer(t, map[string]string{
		"RATELIMIT_LOGIN_MAX": "3",
	})
	client := newClient(t, baseURL)
	ctx := t.Context()

	for range 3 {
		_, err := client.Login(ctx, authsdk.LoginRequest{Email: "nobody@example.com", Password: "Wrong!pass1"})
		assertStatus(t, err, http.StatusUnauthorized, "within budget")
	}

	_, err := client.Login(ctx, authsdk.LoginRequest{Email: "nobody@example.com", Password: "Wrong!pass1"})
	apiErr := assertStatus(t, err, http.StatusTooManyRequests, "over budget")
	require.Positive(t, apiErr.RetryAfter)
}
