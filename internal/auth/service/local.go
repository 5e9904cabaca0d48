package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/store"
	"github.com/gitsumitsinghpw/auth-app/pkg/cryptox"
	"github.com/gitsumitsinghpw/auth-app/pkg/slogx"
)

// LocalAuthenticator checks email/password pairs against stored hashes and
// keeps the failed-attempt counters.
type LocalAuthenticator struct {
	Store  store.Store
	Hasher *cryptox.Hasher
	// Policy defaults to domain.DefaultLockoutPolicy.
	Policy domain.LockoutPolicy
	Now    func() time.Time

	// OnLockout runs once for the failure that locks an account.
	OnLockout func()
}

func (s *LocalAuthenticator) policy() domain.LockoutPolicy {
	if s.Policy.MaxAttempts <= 0 || s.Policy.LockFor <= 0 {
		return domain.DefaultLockoutPolicy
	}
	return s.Policy
}

func (s *LocalAuthenticator) Authenticate(ctx context.Context, c Credentials) (domain.Account, error) {
	lc, ok := c.(LocalCredentials)
	if !ok {
		return domain.Account{}, ErrUnsupportedMethod
	}
	l := slogx.FromContext(ctx)

	accounts := s.Store.Accounts()
	a, err := accounts.FindLocalByEmail(ctx, lc.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		l.Info("local login for unknown account", slog.String("email", slogx.MaskEmail(lc.Email)))
		return domain.Account{}, ErrInvalidCredentials
	case err != nil:
		l.Error("failed to load account", "error", err)
		return domain.Account{}, unavailable("find account", err)
	}

	now := clock(s.Now)
	if a.IsLocked(now) {
		return domain.Account{}, newLockedError(*a.LockUntil, now)
	}
	if !a.IsActive {
		return domain.Account{}, ErrAccountInactive
	}

	if err := s.Hasher.Verify(lc.Password, a.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrMalformedHash) {
			l.Error("stored password hash is malformed", slog.String("account_id", a.ID), "error", err)
		}
		return domain.Account{}, s.recordFailure(ctx, a, now)
	}

	if err := accounts.ResetLoginState(ctx, a.ID, now); err != nil {
		l.Error("failed to reset login state", slog.String("account_id", a.ID), "error", err)
		return domain.Account{}, unavailable("reset login state", err)
	}
	a = domain.ApplySuccess(a, now)

	if s.Hasher.NeedsRehash(a.PasswordHash) {
		s.rehash(ctx, &a, lc.Password, now)
	}
	return a, nil
}

func (s *LocalAuthenticator) recordFailure(ctx context.Context, a domain.Account, now time.Time) error {
	l := slogx.FromContext(ctx)

	p := s.policy()
	updated, err := s.Store.Accounts().RecordLoginFailure(ctx, a.ID, p, now)
	if err != nil {
		l.Error("failed to record login failure", slog.String("account_id", a.ID), "error", err)
		return unavailable("record login failure", err)
	}

	l.Info("local login failed",
		slog.String("account_id", a.ID),
		slog.Int("attempts", updated.LoginAttempts),
	)
	// Only the failure that reached the threshold reports the lock.
	if updated.IsLocked(now) && updated.LoginAttempts == p.MaxAttempts {
		l.Warn("account locked after repeated failures",
			slog.String("account_id", a.ID),
			slog.Time("lock_until", *updated.LockUntil),
		)
		if s.OnLockout != nil {
			s.OnLockout()
		}
	}
	return ErrInvalidCredentials
}

// rehash upgrades a legacy or outdated hash. Failure only costs the upgrade.
func (s *LocalAuthenticator) rehash(ctx context.Context, a *domain.Account, password string, now time.Time) {
	l := slogx.FromContext(ctx)

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		l.Warn("failed to rehash password", slog.String("account_id", a.ID), "error", err)
		return
	}
	next := *a
	next.PasswordHash = hash
	next.UpdatedAt = now
	if err := s.Store.Accounts().Update(ctx, next); err != nil {
		l.Warn("failed to store upgraded password hash", slog.String("account_id", a.ID), "error", err)
		return
	}
	*a = next
	l.Info("upgraded password hash", slog.String("account_id", a.ID))
}
