// Package storetest holds the behaviour suite every store driver must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/store"
	"github.com/gitsumitsinghpw/auth-app/pkg/idx"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// NewAccount returns a valid local account created at base+offset.
func NewAccount(email string, offset time.Duration) domain.Account {
	at := base.Add(offset)
	return domain.Account{
		ID:           idx.NewAt(at).String(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Role:         domain.RoleUser,
		Method:       domain.MethodLocal,
		IsActive:     true,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

// Run exercises newStore against the full Accounts contract. newStore must
// return a migrated, empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("create and find", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		accounts := s.Accounts()

		alice := NewAccount("alice@example.com", 0)
		require.NoError(t, accounts.Create(ctx, alice))

		got, err := accounts.FindByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, alice.Email, got.Email)
		require.Equal(t, alice.PasswordHash, got.PasswordHash)
		require.True(t, got.IsActive)
		require.Nil(t, got.LockUntil)
		require.True(t, alice.CreatedAt.Equal(got.CreatedAt))

		got, err = accounts.FindLocalByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)

		_, err = accounts.FindByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("email unique across methods", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Accounts().Create(ctx, NewAccount("dup@example.com", 0)))

		dup := NewAccount("dup@example.com", time.Second)
		dup.Method = domain.MethodOAuth
		dup.PasswordHash = ""
		dup.Provider, dup.ProviderID = "github", "42"
		require.ErrorIs(t, s.Accounts().Create(ctx, dup), store.ErrAlreadyExists)

		_, err := s.Accounts().FindLocalByEmail(ctx, "dup@example.com")
		require.NoError(t, err)
	})

	t.Run("provider identity", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		a := NewAccount("gh@example.com", 0)
		a.Method, a.PasswordHash = domain.MethodOAuth, ""
		a.Provider, a.ProviderID = "github", "1001"
		require.NoError(t, s.Accounts().Create(ctx, a))

		got, err := s.Accounts().FindByProviderIdentity(ctx, "github", "1001")
		require.NoError(t, err)
		require.Equal(t, a.ID, got.ID)

		_, err = s.Accounts().FindLocalByEmail(ctx, "gh@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)

		b := NewAccount("other@example.com", time.Second)
		b.Method, b.PasswordHash = domain.MethodOAuth, ""
		b.Provider, b.ProviderID = "github", "1001"
		require.ErrorIs(t, s.Accounts().Create(ctx, b), store.ErrAlreadyExists)
	})

	t.Run("update and delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		a := NewAccount("bob@example.com", 0)
		require.NoError(t, s.Accounts().Create(ctx, a))

		a.Name = "Bob Builder"
		a.Role = domain.RoleAdmin
		a.EmailVerified = true
		a.UpdatedAt = base.Add(time.Hour)
		require.NoError(t, s.Accounts().Update(ctx, a))

		got, err := s.Accounts().FindByID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, "Bob Builder", got.Name)
		require.Equal(t, domain.RoleAdmin, got.Role)
		require.True(t, got.EmailVerified)

		require.NoError(t, s.Accounts().Delete(ctx, a.ID))
		require.ErrorIs(t, s.Accounts().Delete(ctx, a.ID), store.ErrNotFound)
		require.ErrorIs(t, s.Accounts().Update(ctx, a), store.ErrNotFound)
	})

	t.Run("login failure bookkeeping", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		p := domain.DefaultLockoutPolicy

		a := NewAccount("lock@example.com", 0)
		require.NoError(t, s.Accounts().Create(ctx, a))

		now := base.Add(time.Hour)
		var got domain.Account
		var err error
		want := a
		for i := 1; i <= p.MaxAttempts; i++ {
			got, err = s.Accounts().RecordLoginFailure(ctx, a.ID, p, now)
			require.NoError(t, err)
			want = p.ApplyFailure(want, now)
			require.Equal(t, i, got.LoginAttempts)
			requireSameLockout(t, want, got)
		}
		require.True(t, got.IsLocked(now))
		require.True(t, now.Add(p.LockFor).Equal(*got.LockUntil))

		// Once the lock has elapsed the next failure restarts the count.
		later := now.Add(p.LockFor + time.Minute)
		got, err = s.Accounts().RecordLoginFailure(ctx, a.ID, p, later)
		require.NoError(t, err)
		want = p.ApplyFailure(want, later)
		requireSameLockout(t, want, got)
		require.Equal(t, 1, got.LoginAttempts)
		require.Nil(t, got.LockUntil)

		require.NoError(t, s.Accounts().ResetLoginState(ctx, a.ID, later))
		got, err = s.Accounts().FindByID(ctx, a.ID)
		require.NoError(t, err)
		require.Zero(t, got.LoginAttempts)
		require.NotNil(t, got.LastLogin)

		_, err = s.Accounts().RecordLoginFailure(ctx, "missing", p, now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("release expired locks", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		expired := NewAccount("expired@example.com", 0)
		until := base.Add(time.Minute)
		expired.LockUntil, expired.LoginAttempts = &until, 5
		require.NoError(t, s.Accounts().Create(ctx, expired))

		active := NewAccount("active@example.com", time.Second)
		until2 := base.Add(time.Hour)
		active.LockUntil, active.LoginAttempts = &until2, 5
		require.NoError(t, s.Accounts().Create(ctx, active))

		n, err := s.Accounts().ReleaseExpiredLocks(ctx, base.Add(10*time.Minute))
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		got, err := s.Accounts().FindByID(ctx, expired.ID)
		require.NoError(t, err)
		require.Nil(t, got.LockUntil)
		require.Zero(t, got.LoginAttempts)

		got, err = s.Accounts().FindByID(ctx, active.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LockUntil)
	})

	t.Run("list count and filters", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for i, email := range []string{"ann@example.com", "ben@example.com", "cat@corp.io"} {
			a := NewAccount(email, time.Duration(i)*time.Minute)
			if i == 2 {
				a.Role = domain.RoleAdmin
				a.Name = "Cat Admin"
			}
			require.NoError(t, s.Accounts().Create(ctx, a))
		}
		dir := NewAccount("dir@example.com", 10*time.Minute)
		dir.Method, dir.PasswordHash = domain.MethodDirectory, ""
		dir.Provider, dir.ProviderID = domain.ProviderDirectory, "dir"
		require.NoError(t, s.Accounts().Create(ctx, dir))

		all, err := s.Accounts().List(ctx, store.AccountFilter{}, 0, 10)
		require.NoError(t, err)
		require.Len(t, all, 4)
		require.Equal(t, "dir@example.com", all[0].Email, "newest first")

		page, err := s.Accounts().List(ctx, store.AccountFilter{}, 1, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		require.Equal(t, "cat@corp.io", page[0].Email)

		found, err := s.Accounts().List(ctx, store.AccountFilter{Search: "CORP"}, 0, 10)
		require.NoError(t, err)
		require.Len(t, found, 1)

		n, err := s.Accounts().Count(ctx, store.AccountFilter{Role: domain.RoleAdmin})
		require.NoError(t, err)
		require.Equal(t, 1, n)

		since := base.Add(5 * time.Minute)
		n, err = s.Accounts().Count(ctx, store.AccountFilter{CreatedSince: &since})
		require.NoError(t, err)
		require.Equal(t, 1, n)

		byMethod, err := s.Accounts().CountByMethod(ctx)
		require.NoError(t, err)
		require.Equal(t, 3, byMethod[domain.MethodLocal])
		require.Equal(t, 1, byMethod[domain.MethodDirectory])
	})

	t.Run("transactions", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		boom := errors.New("boom")

		err := s.WithTx(ctx, func(tx store.Tx) error {
			require.NoError(t, tx.Accounts().Create(ctx, NewAccount("rolled@example.com", 0)))
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = s.Accounts().FindByEmail(ctx, "rolled@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)

		err = s.WithTx(ctx, func(tx store.Tx) error {
			require.ErrorIs(t, tx.WithTx(ctx, func(store.Tx) error { return nil }), store.ErrNestedTx)
			return tx.Accounts().Create(ctx, NewAccount("kept@example.com", 0))
		})
		require.NoError(t, err)

		_, err = s.Accounts().FindByEmail(ctx, "kept@example.com")
		require.NoError(t, err)
	})
}

// requireSameLockout compares the lockout fields a driver stored with the
// domain rule.
func requireSameLockout(t *testing.T, want, got domain.Account) {
	t.Helper()
	require.Equal(t, want.LoginAttempts, got.LoginAttempts)
	if want.LockUntil == nil {
		require.Nil(t, got.LockUntil)
		return
	}
	require.NotNil(t, got.LockUntil)
	require.True(t, want.LockUntil.Equal(*got.LockUntil), "lock until %s, want %s", got.LockUntil, want.LockUntil)
}
