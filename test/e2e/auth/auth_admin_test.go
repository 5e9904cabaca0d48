package auth_test

import (
	"net/http"
	"testing"

	"github.com/gitsumitsinghpw/auth-app/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestAdminUserManagement drives the admin API end to end.
func TestAdminUserManagement(t *testing.T) {
	baseURL := setupAuthContainer(t, nil)
	admin := performLogin(t, baseURL, adminEmail, adminPassword)
	ctx := t.Context()

	created, err := admin.CreateUser(ctx, authsdk.AdminCreateUserRequest{
		Name:     "Mallory Example",
		Email:    "mallory@example.com",
		Role:     "user",
		Password: testPassword,
	})
	require.NoError(t, err)

	list, err := admin.ListUsers(ctx, authsdk.ListUsersParams{Search: "mallory"})
	require.NoError(t, err)
	require.Len(t, list.Users, 1)

	inactive := false
	_, err = admin.UpdateUser(ctx, created.ID, authsdk.AdminUpdateUserRequest{IsActive: &inactive})
	require.NoError(t, err)

	_, err = newClient(t, baseURL).Login(ctx, authsdk.LoginRequest{Email: "mallory@example.com", Password: testPassword})
	assertStatus(t, err, http.StatusForbidden, "deactivated account")

	require.NoError(t, admin.DeleteUser(ctx, created.ID))
	_, err = admin.GetUser(ctx, created.ID)
	assertStatus(t, err, http.StatusNotFound, "deleted account")
}
