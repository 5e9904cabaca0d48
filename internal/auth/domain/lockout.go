package domain

import "time"

// LockoutPolicy controls failed-login bookkeeping for local accounts.
type LockoutPolicy struct {
	MaxAttempts int
	LockFor     time.Duration
}

// DefaultLockoutPolicy locks an account for two hours after five failures.
var DefaultLockoutPolicy = LockoutPolicy{MaxAttempts: 5, LockFor: 2 * time.Hour}

// ApplyFailure returns a with one more failed attempt recorded at now.
//
// An elapsed lock restarts the counter at 1. Otherwise the counter grows and
// reaching MaxAttempts sets LockUntil. The store drivers apply the same rule
// in a single UPDATE; the driver contract suite checks them against this.
func (p LockoutPolicy) ApplyFailure(a Account, now time.Time) Account {
	if a.LockUntil != nil && !a.LockUntil.After(now) {
		a.LoginAttempts = 1
		a.LockUntil = nil
		return a
	}

	a.LoginAttempts++
	if a.LoginAttempts >= p.MaxAttempts && !a.IsLocked(now) {
		until := now.Add(p.LockFor)
		a.LockUntil = &until
	}
	return a
}

// ApplySuccess clears lockout state and stamps LastLogin.
func ApplySuccess(a Account, now time.Time) Account {
	a.LoginAttempts = 0
	a.LockUntil = nil
	a.LastLogin = &now
	return a
}
