package service

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrInvalidCredentials never says whether the account exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is deactivated")
	// ErrUpstreamUnavailable covers an unreachable store or directory. The
	// cause is logged where it happens, not returned to the client.
	ErrUpstreamUnavailable = errors.New("authentication backend unavailable")
	ErrUnsupportedMethod   = errors.New("unsupported authentication method")

	ErrNotFound           = errors.New("user not found")
	ErrConflict           = errors.New("an account with this email already exists")
	ErrSelfAction         = errors.New("admins cannot delete or demote their own account")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrPasswordNotManaged = errors.New("password is managed by the identity provider")
)

// LockedError is returned while an account is locked out. Until is the
// instant the lock elapses.
type LockedError struct {
	Until     time.Time
	Remaining time.Duration
}

func newLockedError(until, now time.Time) *LockedError {
	return &LockedError{Until: until, Remaining: until.Sub(now)}
}

// Minutes is the remaining lock rounded up, never below one.
func (e *LockedError) Minutes() int {
	m := int(math.Ceil(e.Remaining.Minutes()))
	return max(m, 1)
}

// RetryAfter is the remaining lock in whole seconds, rounded up.
func (e *LockedError) RetryAfter() int {
	s := int(math.Ceil(e.Remaining.Seconds()))
	return max(s, 1)
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("Account is temporarily locked. Try again in %d minutes.", e.Minutes())
}

// unavailable tags err as an upstream failure while keeping the cause for
// logs.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, op, err)
}
