package service

import (
	"context"
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
)

// Credentials is a closed set: LocalCredentials, DirectoryCredentials and
// OAuthCredentials.
type Credentials interface {
	Method() domain.AuthMethod
	credentials()
}

type LocalCredentials struct {
	Email    string
	Password string
}

// DirectoryCredentials carries a uid or an email in Username.
type DirectoryCredentials struct {
	Username string
	Password string
}

// OAuthCredentials wraps a profile already verified by the broker.
type OAuthCredentials struct {
	Profile Profile
}

func (LocalCredentials) Method() domain.AuthMethod     { return domain.MethodLocal }
func (DirectoryCredentials) Method() domain.AuthMethod { return domain.MethodDirectory }
func (OAuthCredentials) Method() domain.AuthMethod     { return domain.MethodOAuth }

func (LocalCredentials) credentials()     {}
func (DirectoryCredentials) credentials() {}
func (OAuthCredentials) credentials()     {}

// Authenticator proves one kind of Credentials and returns the account it
// belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, c Credentials) (domain.Account, error)
}

// Authenticators dispatches on Credentials.Method.
type Authenticators map[domain.AuthMethod]Authenticator

func (a Authenticators) Authenticate(ctx context.Context, c Credentials) (domain.Account, error) {
	if c == nil {
		return domain.Account{}, ErrUnsupportedMethod
	}
	auth, ok := a[c.Method()]
	if !ok || auth == nil {
		return domain.Account{}, ErrUnsupportedMethod
	}
	return auth.Authenticate(ctx, c)
}

// Has reports whether m can be authenticated.
func (a Authenticators) Has(m domain.AuthMethod) bool {
	auth, ok := a[m]
	return ok && auth != nil
}

func clock(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now()
}
