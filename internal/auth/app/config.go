package app

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/gitsumitsinghpw/auth-app/pkg/cryptox"
)

type Config struct {
	Env                  string        `toml:"env"`                   // Environment (dev, prod) (default: dev)
	LogLevel             string        `toml:"log_level"`             // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        `toml:"log_format"`            // Log format (json, text) (default: json)
	Port                 int           `toml:"port"`                  // HTTP server port (default: 3000)
	ShutdownGracePeriod  time.Duration `toml:"shutdown_grace_period"` // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration `toml:"housekeeping_interval"` // Housekeeping interval (default: 5m)

	DatabaseDriver string `toml:"database_driver"` // sqlite or postgres (default: sqlite)
	DatabaseFile   string `toml:"database_file"`   // SQLite database file (default: ./auth.db)
	DatabaseURL    string `toml:"database_url"`    // Postgres connection URL
	PepperFile     string `toml:"pepper_file"`     // Password hashing pepper (default: ./pepper)

	// Argon2id cost for new hashes. Existing hashes are upgraded on the next
	// login. Floor is 19456 KiB, t=2, p=1.
	Argon2MemoryKiB   int `toml:"argon2_memory_kib"`  // (default: 65536)
	Argon2Iterations  int `toml:"argon2_iterations"`  // (default: 3)
	Argon2Parallelism int `toml:"argon2_parallelism"` // (default: 4)

	SessionSecret     string        `toml:"session_secret"`      // Required in prod, at least 32 bytes
	SessionTTL        time.Duration `toml:"session_ttl"`         // (default: 7 days)
	SessionCookieName string        `toml:"session_cookie_name"` // (default: secure-auth-session)
	JWTSecret         string        `toml:"jwt_secret"`          // CSRF token key (default: the session secret)
	ForceHTTPS        bool          `toml:"force_https"`         // Secure cookies and HSTS outside prod too

	LDAPMode         string        `toml:"ldap_mode"` // mock or ldap (default: mock in dev, ldap in prod)
	LDAPURL          string        `toml:"ldap_url"`
	LDAPBindDN       string        `toml:"ldap_bind_dn"`
	LDAPBindPassword string        `toml:"ldap_bind_password"`
	LDAPSearchBase   string        `toml:"ldap_search_base"`
	LDAPTimeout      time.Duration `toml:"ldap_timeout"` // (default: 500ms)

	OAuthBrokerSecret string `toml:"oauth_broker_secret"` // Enables POST /api/auth/oauth when set

	RateLimitBackend string `toml:"ratelimit_backend"` // memory or redis (default: memory)
	RedisAddr        string `toml:"redis_addr"`
	RedisPassword    string `toml:"redis_password"`

	SeedDevAccounts bool `toml:"seed_dev_accounts"` // (default: true in dev)
}

func (c Config) IsProduction() bool { return c.Env == "prod" }

// Argon2Params converts the configured cost. Out of range values come back
// as zero and fail validation.
func (c Config) Argon2Params() cryptox.Argon2Params {
	var p cryptox.Argon2Params
	if c.Argon2MemoryKiB > 0 && c.Argon2MemoryKiB <= math.MaxUint32 {
		p.Memory = uint32(c.Argon2MemoryKiB)
	}
	if c.Argon2Iterations > 0 && c.Argon2Iterations <= math.MaxUint32 {
		p.Iterations = uint32(c.Argon2Iterations)
	}
	if c.Argon2Parallelism > 0 && c.Argon2Parallelism <= math.MaxUint8 {
		p.Parallelism = uint8(c.Argon2Parallelism)
	}
	return p
}

func defaultConfig() Config {
	return Config{
		Env:                  "dev",
		LogLevel:             "info",
		LogFormat:            "json",
		Port:                 3000,
		ShutdownGracePeriod:  10 * time.Second,
		HousekeepingInterval: 5 * time.Minute,
		DatabaseDriver:       "sqlite",
		DatabaseFile:         "auth.db",
		PepperFile:           "pepper",
		Argon2MemoryKiB:      int(cryptox.DefaultArgon2Params.Memory),
		Argon2Iterations:     int(cryptox.DefaultArgon2Params.Iterations),
		Argon2Parallelism:    int(cryptox.DefaultArgon2Params.Parallelism),
		SessionTTL:           7 * 24 * time.Hour,
		SessionCookieName:    "secure-auth-session",
		LDAPTimeout:          500 * time.Millisecond,
		RateLimitBackend:     "memory",
	}
}

// LoadConfig reads AUTH_CONFIG_FILE (TOML) when set and then applies the
// environment on top of it.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()

	var md toml.MetaData
	if path := os.Getenv("AUTH_CONFIG_FILE"); path != "" {
		var err error
		if md, err = toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	cfg.Env = normalizeEnv(getEnvOrDefault("ENV", cfg.Env))
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.Port = getEnvIntOrDefault("PORT", cfg.Port)
	cfg.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod)
	cfg.HousekeepingInterval = getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", cfg.HousekeepingInterval)

	cfg.DatabaseDriver = getEnvOrDefault("AUTH_DATABASE_DRIVER", cfg.DatabaseDriver)
	cfg.DatabaseFile = getEnvOrDefault("AUTH_DATABASE_FILE", cfg.DatabaseFile)
	cfg.DatabaseURL = getEnvOrDefault("AUTH_DATABASE_URL", cfg.DatabaseURL)
	cfg.PepperFile = getEnvOrDefault("AUTH_PEPPER_FILE", cfg.PepperFile)
	cfg.Argon2MemoryKiB = getEnvIntOrDefault("AUTH_ARGON2_MEMORY_KIB", cfg.Argon2MemoryKiB)
	cfg.Argon2Iterations = getEnvIntOrDefault("AUTH_ARGON2_ITERATIONS", cfg.Argon2Iterations)
	cfg.Argon2Parallelism = getEnvIntOrDefault("AUTH_ARGON2_PARALLELISM", cfg.Argon2Parallelism)

	cfg.SessionSecret = getEnvOrDefault("SESSION_SECRET", cfg.SessionSecret)
	cfg.SessionTTL = getEnvDurationOrDefault("SESSION_TTL", cfg.SessionTTL)
	cfg.SessionCookieName = getEnvOrDefault("SESSION_COOKIE_NAME", cfg.SessionCookieName)
	cfg.JWTSecret = getEnvOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.ForceHTTPS = getEnvBoolOrDefault("FORCE_HTTPS", cfg.ForceHTTPS)

	if cfg.LDAPMode == "" {
		cfg.LDAPMode = "mock"
		if cfg.IsProduction() {
			cfg.LDAPMode = "ldap"
		}
	}
	cfg.LDAPMode = getEnvOrDefault("LDAP_MODE", cfg.LDAPMode)
	cfg.LDAPURL = getEnvOrDefault("LDAP_URL", cfg.LDAPURL)
	cfg.LDAPBindDN = getEnvOrDefault("LDAP_BIND_DN", cfg.LDAPBindDN)
	cfg.LDAPBindPassword = getEnvOrDefault("LDAP_BIND_PASSWORD", cfg.LDAPBindPassword)
	cfg.LDAPSearchBase = getEnvOrDefault("LDAP_SEARCH_BASE", cfg.LDAPSearchBase)
	cfg.LDAPTimeout = getEnvDurationOrDefault("LDAP_TIMEOUT", cfg.LDAPTimeout)

	cfg.OAuthBrokerSecret = getEnvOrDefault("OAUTH_BROKER_SECRET", cfg.OAuthBrokerSecret)

	cfg.RateLimitBackend = getEnvOrDefault("RATELIMIT_BACKEND", cfg.RateLimitBackend)
	cfg.RedisAddr = getEnvOrDefault("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisPassword)

	if !md.IsDefined("seed_dev_accounts") {
		cfg.SeedDevAccounts = !cfg.IsProduction()
	}
	cfg.SeedDevAccounts = getEnvBoolOrDefault("SEED_DEV_ACCOUNTS", cfg.SeedDevAccounts)

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Env {
	case "dev", "prod":
	default:
		return fmt.Errorf("ENV must be dev or prod, got %q", c.Env)
	}
	switch c.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("AUTH_DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("AUTH_DATABASE_DRIVER must be sqlite or postgres, got %q", c.DatabaseDriver)
	}
	switch c.LDAPMode {
	case "mock", "ldap":
	default:
		return fmt.Errorf("LDAP_MODE must be mock or ldap, got %q", c.LDAPMode)
	}
	switch c.RateLimitBackend {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis rate limit backend")
		}
	default:
		return fmt.Errorf("RATELIMIT_BACKEND must be memory or redis, got %q", c.RateLimitBackend)
	}
	if err := c.Argon2Params().Validate(); err != nil {
		return fmt.Errorf("AUTH_ARGON2_*: %w", err)
	}
	if c.IsProduction() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}
	return nil
}

func normalizeEnv(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod":
		return "prod"
	case "development", "dev", "":
		return "dev"
	}
	return env
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
