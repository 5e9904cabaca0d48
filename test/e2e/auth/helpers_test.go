package auth_test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/gitsumitsinghpw/auth-app/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup, service operations, and assertions.
 */

const (
	testImageName = "auth-app-test:latest"

	sessionSecret = "e2e-session-secret-0123456789abcdef"
	brokerSecret  = "e2e-broker-secret-0123456789abcdef"

	// Seeded in development.
	adminEmail    = "admin@example.com"
	adminPassword = "AdminPass123!"
	userEmail     = "user@example.com"
	userPassword  = "UserPass123!"

	testPassword = "S3cret!pass"
)

// TestMain builds the Docker image once before all tests and cleans it up
// after all tests complete. Skipped under -short.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Fprintln(os.Stdout, "skipping end-to-end tests in short mode")
		os.Exit(0)
	}

	fmt.Fprintf(os.Stdout, "Building Auth Service Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // the image might not exist
}

// setupAuthContainer starts the auth service in development mode with
// relaxed rate limits. env is applied on top of the defaults.
func setupAuthContainer(t *testing.T, env map[string]string) string {
	t.Helper()
	ctx := context.Background()

	containerEnv := map[string]string{
		"ENV":                 "dev",
		"LOG_LEVEL":           "info",
		"LOG_FORMAT":          "json",
		"SESSION_SECRET":      sessionSecret,
		"OAUTH_BROKER_SECRET": brokerSecret,
		"LDAP_MODE":           "mock",
		// Tests make many rapid requests from one address.
		"RATELIMIT_SYSTEM_REQUESTS": "1000",
		"RATELIMIT_SYSTEM_BURST":    "1000",
	}
	for k, v := range env {
		containerEnv[k] = v
	}

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"3000/tcp"},
		Env:          containerEnv,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("3000/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "3000")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
}

func newClient(t *testing.T, baseURL string) *authsdk.Client {
	t.Helper()
	c, err := authsdk.NewClient(baseURL)
	require.NoError(t, err)
	return c
}

// performLogin logs a fresh client in with local credentials.
func performLogin(t *testing.T, baseURL, email, password string) *authsdk.Client {
	t.Helper()
	c := newClient(t, baseURL)
	res, err := c.Login(t.Context(), authsdk.LoginRequest{Email: email, Password: password})
	require.NoError(t, err, "Login should succeed")
	require.NotEmpty(t, res.CSRFToken, "CSRF token should not be empty")
	return c
}

// assertStatus checks that err is an API error with the given status.
func assertStatus(t *testing.T, err error, status int, msg string) *authsdk.APIError {
	t.Helper()
	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr), "%s - expected an API error, got: %v", msg, err)
	require.Equal(t, status, apiErr.StatusCode, "%s - %s", msg, apiErr.Error())
	return apiErr
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
