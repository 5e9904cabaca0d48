package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/validate"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestAdminSelfActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root, err := f.accounts.Create(ctx, NewAccount{
		Name: "Root Admin", Email: "root@example.com", Password: "R00tPass!!", Role: domain.RoleAdmin,
	})
	require.NoError(t, err)

	t.Run("cannot demote self", func(t *testing.T) {
		_, err := f.admin.Update(ctx, root.ID, root.ID, validate.AdminUpdate{Role: ptr(domain.RoleUser)})
		require.ErrorIs(t, err, ErrSelfAction)
	})

	t.Run("may edit own name", func(t *testing.T) {
		a, err := f.admin.Update(ctx, root.ID, root.ID, validate.AdminUpdate{Name: ptr("Root Renamed"), Role: ptr(domain.RoleAdmin)})
		require.NoError(t, err)
		require.Equal(t, "Root Renamed", a.Name)
	})

	t.Run("cannot delete self", func(t *testing.T) {
		_, err := f.admin.Delete(ctx, root.ID, root.ID)
		require.ErrorIs(t, err, ErrSelfAction)

		_, err = f.store.Accounts().FindByID(ctx, root.ID)
		require.NoError(t, err)
	})
}

func TestAdminCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin, err := f.accounts.Create(ctx, NewAccount{
		Name: "Root Admin", Email: "root@example.com", Password: "R00tPass!!", Role: domain.RoleAdmin,
	})
	require.NoError(t, err)

	in, err := validate.ValidateAdminCreate(validate.AdminCreate{
		Name: "Erin Example", Email: "erin@example.com", Role: domain.RoleUser, Password: "Er1nPass!!",
	})
	require.NoError(t, err)
	erin, err := f.admin.Create(ctx, in)
	require.NoError(t, err)
	require.False(t, erin.EmailVerified)
	require.NotEmpty(t, erin.PasswordHash)
	require.NoError(t, f.hasher.Verify("Er1nPass!!", erin.PasswordHash))

	dir, err := validate.ValidateAdminCreate(validate.AdminCreate{
		Name: "Frank Example", Email: "frank@example.com", Role: domain.RoleUser, AuthMethod: domain.MethodDirectory,
	})
	require.NoError(t, err)
	frank, err := f.admin.Create(ctx, dir)
	require.NoError(t, err)
	require.True(t, frank.EmailVerified)
	require.Empty(t, frank.PasswordHash)
	require.Equal(t, domain.ProviderDirectory, frank.Provider)
	require.Equal(t, "frank", frank.ProviderID)
	require.Empty(t, erin.Provider)

	named, err := validate.ValidateAdminCreate(validate.AdminCreate{
		Name: "Grace Example", Email: "grace@example.com", Role: domain.RoleUser, AuthMethod: domain.MethodDirectory, Username: "ghopper",
	})
	require.NoError(t, err)
	grace, err := f.admin.Create(ctx, named)
	require.NoError(t, err)
	require.Equal(t, "ghopper", grace.ProviderID)
	stored, err := f.store.Accounts().FindByProviderIdentity(ctx, domain.ProviderDirectory, "ghopper")
	require.NoError(t, err)
	require.Equal(t, grace.ID, stored.ID)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.admin.Create(ctx, in)
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("update", func(t *testing.T) {
		a, err := f.admin.Update(ctx, admin.ID, erin.ID, validate.AdminUpdate{
			Role: ptr(domain.RoleAdmin), IsActive: ptr(false), EmailVerified: ptr(true),
		})
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, a.Role)
		require.False(t, a.IsActive)
		require.True(t, a.EmailVerified)
	})

	t.Run("update to a taken email", func(t *testing.T) {
		_, err := f.admin.Update(ctx, admin.ID, erin.ID, validate.AdminUpdate{Email: ptr("frank@example.com")})
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("get and delete", func(t *testing.T) {
		got, err := f.admin.Get(ctx, frank.ID)
		require.NoError(t, err)
		require.Equal(t, frank.Email, got.Email)

		deleted, err := f.admin.Delete(ctx, admin.ID, frank.ID)
		require.NoError(t, err)
		require.Equal(t, frank.ID, deleted.ID)

		_, err = f.admin.Get(ctx, frank.ID)
		require.ErrorIs(t, err, ErrNotFound)
		_, err = f.admin.Delete(ctx, admin.ID, frank.ID)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAdminList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := range 12 {
		f.clock.Advance(time.Minute)
		role := domain.RoleUser
		if i%4 == 0 {
			role = domain.RoleAdmin
		}
		_, err := f.accounts.Create(ctx, NewAccount{
			Name:     fmt.Sprintf("User %c", 'A'+i),
			Email:    fmt.Sprintf("user%02d@example.com", i),
			Password: "Us3rPass!!",
			Role:     role,
		})
		require.NoError(t, err)
	}

	page, err := f.admin.List(ctx, ListQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Page)
	require.Equal(t, DefaultPageSize, page.Limit)
	require.Equal(t, 12, page.Total)
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Accounts, 10)
	require.Equal(t, "user11@example.com", page.Accounts[0].Email, "newest first")
	require.True(t, page.HasNext())
	require.False(t, page.HasPrev())

	page, err = f.admin.List(ctx, ListQuery{Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Accounts, 2)
	require.False(t, page.HasNext())
	require.True(t, page.HasPrev())

	page, err = f.admin.List(ctx, ListQuery{Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)

	page, err = f.admin.List(ctx, ListQuery{Search: "USER03"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, "user03@example.com", page.Accounts[0].Email)

	require.Equal(t, MaxPageSize, ListQuery{Limit: 500}.Normalize().Limit)
	require.Equal(t, domain.Role(""), ListQuery{Role: "root"}.Normalize().Role)
}

func TestAdminStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old, err := f.accounts.Create(ctx, NewAccount{Name: "Old Admin", Email: "old@example.com", Password: "0ldPass!!x", Role: domain.RoleAdmin})
	require.NoError(t, err)

	f.clock.Advance(45 * 24 * time.Hour)

	_, err = f.accounts.Create(ctx, NewAccount{Name: "Dir User", Email: "dir@example.com", Method: domain.MethodDirectory})
	require.NoError(t, err)
	r := &OAuthResolver{Store: f.store, Now: f.clock.Now}
	_, err = r.Resolve(ctx, Profile{Provider: "google", ProviderID: "1", Email: "oauth@example.com"})
	require.NoError(t, err)

	locked, err := f.accounts.Create(ctx, NewAccount{Name: "Locked User", Email: "locked@example.com", Password: "L0ckPass!!"})
	require.NoError(t, err)
	until := f.clock.Now().Add(time.Hour)
	locked.LockUntil = &until
	locked.IsActive = false
	require.NoError(t, f.store.Accounts().Update(ctx, locked))

	st, err := f.admin.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, st.Total)
	require.Equal(t, 3, st.Active)
	require.Equal(t, 1, st.Inactive)
	require.Equal(t, 1, st.Admins)
	require.Equal(t, 3, st.Regular)
	require.Equal(t, 1, st.Locked)
	require.Equal(t, 1, st.Verified, "only the directory account is verified")
	require.Equal(t, 3, st.Unverified)
	require.Equal(t, 3, st.Recent)
	require.Equal(t, map[domain.AuthMethod]int{
		domain.MethodLocal:     2,
		domain.MethodDirectory: 1,
		domain.MethodOAuth:     1,
	}, st.ByMethod)
	require.NotEmpty(t, old.ID)
}

func TestProfileAndPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gina := f.register(t, "Gina Example", "gina@example.com", "G1naPass!!")
	f.register(t, "Hank Example", "hank@example.com", "H4nkPass!!")

	t.Run("profile email conflict", func(t *testing.T) {
		_, err := f.accounts.UpdateProfile(ctx, gina.ID, validate.Profile{Name: "Gina", Email: "hank@example.com"})
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("profile update", func(t *testing.T) {
		a, err := f.accounts.UpdateProfile(ctx, gina.ID, validate.Profile{Name: "Gina Renamed", Email: "gina.new@example.com"})
		require.NoError(t, err)
		require.Equal(t, "gina.new@example.com", a.Email)

		stored, err := f.store.Accounts().FindByID(ctx, gina.ID)
		require.NoError(t, err)
		require.Equal(t, "Gina Renamed", stored.Name)
	})

	t.Run("wrong current password", func(t *testing.T) {
		err := f.accounts.ChangePassword(ctx, gina.ID, validate.PasswordChange{
			CurrentPassword: "nope", NewPassword: "N3wPass!!x", ConfirmNewPassword: "N3wPass!!x",
		})
		require.ErrorIs(t, err, ErrWrongPassword)
	})

	t.Run("change password", func(t *testing.T) {
		err := f.accounts.ChangePassword(ctx, gina.ID, validate.PasswordChange{
			CurrentPassword: "G1naPass!!", NewPassword: "N3wPass!!x", ConfirmNewPassword: "N3wPass!!x",
		})
		require.NoError(t, err)

		auth := &LocalAuthenticator{Store: f.store, Hasher: f.hasher, Now: f.clock.Now}
		_, err = auth.Authenticate(ctx, LocalCredentials{Email: "gina.new@example.com", Password: "N3wPass!!x"})
		require.NoError(t, err)
	})

	t.Run("not for directory accounts", func(t *testing.T) {
		d, err := f.accounts.Create(ctx, NewAccount{Name: "Dir User", Email: "dir@example.com", Method: domain.MethodDirectory})
		require.NoError(t, err)

		err = f.accounts.ChangePassword(ctx, d.ID, validate.PasswordChange{CurrentPassword: "x", NewPassword: "N3wPass!!x"})
		require.ErrorIs(t, err, ErrPasswordNotManaged)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := f.accounts.UpdateProfile(ctx, "missing", validate.Profile{Name: "X", Email: "x@example.com"})
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.accounts.Seed(ctx, DevAccounts)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	admin, err := f.store.Accounts().FindLocalByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, admin.Role)
	require.True(t, admin.EmailVerified)
	require.NoError(t, f.hasher.Verify("AdminPass123!", admin.PasswordHash))

	n, err = f.accounts.Seed(ctx, DevAccounts)
	require.NoError(t, err)
	require.Zero(t, n)
}
