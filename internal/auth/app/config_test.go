package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gitsumitsinghpw/auth-app/pkg/cryptox"
)

var configKeys = []string{
	"AUTH_CONFIG_FILE", "ENV", "LOG_LEVEL", "LOG_FORMAT", "PORT",
	"SHUTDOWN_GRACE_PERIOD", "HOUSEKEEPING_INTERVAL",
	"AUTH_DATABASE_DRIVER", "AUTH_DATABASE_FILE", "AUTH_DATABASE_URL", "AUTH_PEPPER_FILE",
	"AUTH_ARGON2_MEMORY_KIB", "AUTH_ARGON2_ITERATIONS", "AUTH_ARGON2_PARALLELISM",
	"SESSION_SECRET", "SESSION_TTL", "SESSION_COOKIE_NAME", "JWT_SECRET", "FORCE_HTTPS",
	"LDAP_MODE", "LDAP_URL", "LDAP_BIND_DN", "LDAP_BIND_PASSWORD", "LDAP_SEARCH_BASE", "LDAP_TIMEOUT",
	"OAUTH_BROKER_SECRET", "RATELIMIT_BACKEND", "REDIS_ADDR", "REDIS_PASSWORD", "SEED_DEV_ACCOUNTS",
}

// clearEnv blanks every key LoadConfig reads; blank counts as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, 3000, cfg.Port)
	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.Equal(t, "mock", cfg.LDAPMode)
	require.Equal(t, "memory", cfg.RateLimitBackend)
	require.Equal(t, 5*time.Minute, cfg.HousekeepingInterval)
	require.Equal(t, 500*time.Millisecond, cfg.LDAPTimeout)
	require.True(t, cfg.SeedDevAccounts)
	require.Equal(t, cryptox.DefaultArgon2Params, cfg.Argon2Params())
}

func TestLoadConfigProduction(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")

	_, err := LoadConfig()
	require.ErrorContains(t, err, "SESSION_SECRET")

	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
	require.True(t, cfg.IsProduction())
	require.Equal(t, "ldap", cfg.LDAPMode)
	require.False(t, cfg.SeedDevAccounts)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("HOUSEKEEPING_INTERVAL", "15")
	t.Setenv("FORCE_HTTPS", "true")
	t.Setenv("SEED_DEV_ACCOUNTS", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 2*time.Hour, cfg.SessionTTL)
	require.Equal(t, 15*time.Minute, cfg.HousekeepingInterval)
	require.True(t, cfg.ForceHTTPS)
	require.False(t, cfg.SeedDevAccounts)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "auth.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
port = 4000
log_level = "debug"
session_ttl = "12h"
ldap_mode = "ldap"
ldap_url = "ldaps://dc.example.com:636"
seed_dev_accounts = false
`), 0o600))
	t.Setenv("AUTH_CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 4000, cfg.Port)
	require.Equal(t, "warn", cfg.LogLevel, "environment wins over the file")
	require.Equal(t, 12*time.Hour, cfg.SessionTTL)
	require.Equal(t, "ldap", cfg.LDAPMode)
	require.Equal(t, "ldaps://dc.example.com:636", cfg.LDAPURL)
	require.False(t, cfg.SeedDevAccounts)
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown env", map[string]string{"ENV": "staging"}, "ENV"},
		{"unknown driver", map[string]string{"AUTH_DATABASE_DRIVER": "mysql"}, "AUTH_DATABASE_DRIVER"},
		{"postgres without url", map[string]string{"AUTH_DATABASE_DRIVER": "postgres"}, "AUTH_DATABASE_URL"},
		{"unknown ldap mode", map[string]string{"LDAP_MODE": "kerberos"}, "LDAP_MODE"},
		{"redis without addr", map[string]string{"RATELIMIT_BACKEND": "redis"}, "REDIS_ADDR"},
		{"argon2 memory below floor", map[string]string{"AUTH_ARGON2_MEMORY_KIB": "8192"}, "AUTH_ARGON2"},
		{"argon2 single pass", map[string]string{"AUTH_ARGON2_ITERATIONS": "1"}, "AUTH_ARGON2"},
		{"argon2 parallelism overflow", map[string]string{"AUTH_ARGON2_PARALLELISM": "256"}, "AUTH_ARGON2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadConfigArgon2(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_ARGON2_MEMORY_KIB", "19456")
	t.Setenv("AUTH_ARGON2_ITERATIONS", "2")
	t.Setenv("AUTH_ARGON2_PARALLELISM", "1")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, cryptox.MinArgon2Params, cfg.Argon2Params())
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	_, err := LoadConfig()
	require.Error(t, err)
}
