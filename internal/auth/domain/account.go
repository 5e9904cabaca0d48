package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// AuthMethod records how an account proves its identity.
type AuthMethod string

const (
	MethodLocal     AuthMethod = "local"
	MethodDirectory AuthMethod = "ldap"
	MethodOAuth     AuthMethod = "oauth"
)

func (m AuthMethod) Valid() bool {
	switch m {
	case MethodLocal, MethodDirectory, MethodOAuth:
		return true
	}
	return false
}

// ProviderDirectory is the provider name stored on directory-provisioned
// accounts.
const ProviderDirectory = "ldap"

type Account struct {
	ID            string
	Email         string // trimmed + lowercased, unique across methods
	Name          string
	PasswordHash  string // only for MethodLocal
	Role          Role
	Method        AuthMethod
	Provider      string // "ldap" or the OAuth provider name
	ProviderID    string // uid or provider subject
	Avatar        string
	EmailVerified bool
	IsActive      bool
	LastLogin     *time.Time
	LoginAttempts int
	LockUntil     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsLocked reports whether the account is locked at now. It is derived from
// LockUntil and never stored.
func (a Account) IsLocked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

// LockRemaining returns how long the lock still holds, or zero.
func (a Account) LockRemaining(now time.Time) time.Duration {
	if !a.IsLocked(now) {
		return 0
	}
	return a.LockUntil.Sub(now)
}

func (a Account) IsAdmin() bool { return a.Role == RoleAdmin }

// Summary is the snapshot carried inside a session.
func (a Account) Summary() SessionUser {
	return SessionUser{
		ID:         a.ID,
		Email:      a.Email,
		Name:       a.Name,
		Role:       a.Role,
		AuthMethod: a.Method,
		Avatar:     a.Avatar,
	}
}

// SessionUser is the user snapshot embedded in a sealed session. A role
// change only shows up once a new session is issued.
type SessionUser struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	AuthMethod AuthMethod `json:"authMethod"`
	Avatar     string     `json:"avatar,omitempty"`
}
