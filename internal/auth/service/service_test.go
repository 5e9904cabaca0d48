package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/store"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/store/drivers/sqlite"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/validate"
	"github.com/gitsumitsinghpw/auth-app/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock { return &testClock{now: testEpoch} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

type fixture struct {
	store    store.Store
	clock    *testClock
	hasher   *cryptox.Hasher
	accounts *AccountService
	admin    *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:  newTestStore(t),
		clock:  newTestClock(),
		hasher: cryptox.NewHasher("test-pepper"),
	}
	f.accounts = &AccountService{Store: f.store, Hasher: f.hasher, Now: f.clock.Now}
	f.admin = &AdminService{Accounts: f.accounts}
	return f
}

func (f *fixture) register(t *testing.T, name, email, password string) domain.Account {
	t.Helper()

	in, err := validate.ValidateRegistration(validate.Registration{
		Name: name, Email: email, Password: password, ConfirmPassword: password,
	})
	require.NoError(t, err)
	a, err := f.accounts.Register(context.Background(), in)
	require.NoError(t, err)
	return a
}
