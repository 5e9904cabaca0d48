package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gitsumitsinghpw/auth-app/pkg/ratelimit"
	"github.com/gitsumitsinghpw/auth-app/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) Sweep(context.Context) (int, error) {
	s.calls.Add(1)
	return 0, s.err
}

func TestHousekeepingReleasesExpiredLocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "Ivy Example", "ivy@example.com", "Ivy1Pass!!")

	auth := &LocalAuthenticator{Store: f.store, Hasher: f.hasher, Now: f.clock.Now}
	for range 5 {
		_, err := auth.Authenticate(ctx, LocalCredentials{Email: "ivy@example.com", Password: "bad"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	limiter := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.DefaultPolicies(true), ratelimit.WithClock(f.clock.Now))
	hk := NewHousekeepingService(f.store, limiter, slogx.Discard(), time.Hour)
	hk.Now = f.clock.Now

	hk.RunOnce(ctx)
	stored, err := f.store.Accounts().FindByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LockUntil, "lock still active")

	f.clock.Advance(3 * time.Hour)
	hk.RunOnce(ctx)
	stored, err = f.store.Accounts().FindByID(ctx, a.ID)
	require.NoError(t, err)
	require.Nil(t, stored.LockUntil)
	require.Zero(t, stored.LoginAttempts)
}

func TestHousekeepingStartStop(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("backend down")}
	hk := NewHousekeepingService(nil, sweeper, slogx.Discard(), 10*time.Millisecond)

	hk.Start()
	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	hk.Stop()

	n := sweeper.calls.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, n, sweeper.calls.Load())
}

func TestHousekeepingDefaultInterval(t *testing.T) {
	hk := NewHousekeepingService(nil, nil, slogx.Discard(), 0)
	require.Equal(t, 5*time.Minute, hk.Interval)
}
