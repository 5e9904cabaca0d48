package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/store"
	"github.com/gitsumitsinghpw/auth-app/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestOAuthResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := &OAuthResolver{Store: f.store, Now: f.clock.Now}

	profile := Profile{
		Provider:      "google",
		ProviderID:    "g-123",
		Email:         "Olivia@Example.com",
		Name:          "Olivia",
		Avatar:        "https://img.example.com/o.png",
		EmailVerified: true,
	}

	first, err := r.Resolve(ctx, profile)
	require.NoError(t, err)
	require.Equal(t, "olivia@example.com", first.Email)
	require.Equal(t, domain.MethodOAuth, first.Method)
	require.Equal(t, domain.RoleUser, first.Role)
	require.True(t, first.EmailVerified)

	t.Run("email change at the provider keeps one account", func(t *testing.T) {
		changed := profile
		changed.Email = "olivia.new@example.com"
		changed.Avatar = "https://img.example.com/o2.png"

		a, err := r.Resolve(ctx, changed)
		require.NoError(t, err)
		require.Equal(t, first.ID, a.ID)
		require.Equal(t, "https://img.example.com/o2.png", a.Avatar)

		n, err := f.store.Accounts().Count(ctx, store.AccountFilter{})
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})

	t.Run("role is never changed", func(t *testing.T) {
		a, err := f.store.Accounts().FindByID(ctx, first.ID)
		require.NoError(t, err)
		a.Role = domain.RoleAdmin
		require.NoError(t, f.store.Accounts().Update(ctx, a))

		got, err := r.Authenticate(ctx, OAuthCredentials{Profile: profile})
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, got.Role)
	})

	t.Run("matches an existing account by email", func(t *testing.T) {
		local := f.register(t, "Paul Example", "paul@example.com", "Str0ngPass!")

		a, err := r.Resolve(ctx, Profile{Provider: "github", ProviderID: "p-9", Email: "paul@example.com", Name: "Paul"})
		require.NoError(t, err)
		require.Equal(t, local.ID, a.ID)
		require.Equal(t, domain.MethodLocal, a.Method)
	})

	t.Run("inactive account", func(t *testing.T) {
		a, err := f.store.Accounts().FindByID(ctx, first.ID)
		require.NoError(t, err)
		a.IsActive = false
		require.NoError(t, f.store.Accounts().Update(ctx, a))

		_, err = r.Resolve(ctx, profile)
		require.ErrorIs(t, err, ErrAccountInactive)
	})

	t.Run("incomplete profile", func(t *testing.T) {
		_, err := r.Resolve(ctx, Profile{Provider: "google", Email: "x@example.com"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestOAuthResolveStoreFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Close())

	r := &OAuthResolver{Store: f.store}
	_, err := r.Resolve(context.Background(), Profile{Provider: "google", ProviderID: "1", Email: "a@example.com"})
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestBrokerVerifier(t *testing.T) {
	t.Parallel()

	secret := []byte(strings.Repeat("b", 32))
	v, err := NewBrokerVerifier(secret)
	require.NoError(t, err)
	v.SetClock(func() time.Time { return testEpoch })

	p := Profile{Provider: "google", ProviderID: "sub-1", Email: "q@example.com", Name: "Q", Avatar: "https://a/q.png", EmailVerified: true}
	assertion, err := v.Sign(p, time.Minute)
	require.NoError(t, err)

	got, err := v.Verify(assertion)
	require.NoError(t, err)
	require.Equal(t, p, got)

	t.Run("expired", func(t *testing.T) {
		late, err := NewBrokerVerifier(secret)
		require.NoError(t, err)
		late.SetClock(func() time.Time { return testEpoch.Add(time.Hour) })

		_, err = late.Verify(assertion)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewBrokerVerifier([]byte(strings.Repeat("c", 32)))
		require.NoError(t, err)
		other.SetClock(func() time.Time { return testEpoch })

		_, err = other.Verify(assertion)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("csrf token is not an assertion", func(t *testing.T) {
		csrf, err := NewCSRFService(secret, "")
		require.NoError(t, err)
		csrf.SetClock(func() time.Time { return testEpoch })
		tok, err := csrf.Issue("acct")
		require.NoError(t, err)

		_, err = v.Verify(tok)
		require.ErrorIs(t, err, ErrInvalidCredentials)
		require.ErrorContains(t, err, jwtx.ErrPurpose.Error())
	})

	t.Run("weak secret", func(t *testing.T) {
		_, err := NewBrokerVerifier([]byte("short"))
		require.ErrorIs(t, err, jwtx.ErrWeakSecret)
	})
}
