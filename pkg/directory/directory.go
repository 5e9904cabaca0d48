// Package directory is the client side of a directory service used for
// bind-search-bind authentication. Two Dialers are provided: an in-process
// Mock seeded with test users, and LDAP backed by go-ldap.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// DefaultTimeout bounds a whole authentication exchange.
const DefaultTimeout = 500 * time.Millisecond

var (
	// ErrNotConfigured is returned by Dial when no server URL is set.
	ErrNotConfigured = errors.New("directory: LDAP_URL not configured")
	// ErrInvalidCredentials is returned by Bind when the server rejects the
	// dn/password pair.
	ErrInvalidCredentials = errors.New("directory: invalid credentials")
)

// Config holds the connection and service account settings.
type Config struct {
	URL          string
	BindDN       string
	BindPassword string
	SearchBase   string
	// RoleAttribute names the entry attribute holding the role. Defaults to
	// "role".
	RoleAttribute string
	Timeout       time.Duration
}

// ValidateConfig reports which of the required settings are blank.
func ValidateConfig(c Config) error {
	var missing []string
	for _, f := range []struct{ name, val string }{
		{"LDAP_URL", c.URL},
		{"LDAP_BIND_DN", c.BindDN},
		{"LDAP_BIND_PASSWORD", c.BindPassword},
		{"LDAP_SEARCH_BASE", c.SearchBase},
	} {
		if strings.TrimSpace(f.val) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("directory: missing configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func (c Config) roleAttribute() string {
	if c.RoleAttribute != "" {
		return c.RoleAttribute
	}
	return "role"
}

// Entry is the subset of a directory record used for authentication.
type Entry struct {
	DN   string
	CN   string
	Mail string
	UID  string
	Role string
}

// Conn is one directory session. Close unbinds and releases it and is safe
// to call more than once.
type Conn interface {
	Bind(ctx context.Context, dn, password string) error
	Search(ctx context.Context, base, filter string) ([]Entry, error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// Filter builds the search filter for a login identifier: (mail=x) when it
// contains "@", (uid=x) otherwise. The value is escaped.
func Filter(identifier string) string {
	attr := "uid"
	if strings.Contains(identifier, "@") {
		attr = "mail"
	}
	return "(" + attr + "=" + ldap.EscapeFilter(identifier) + ")"
}
