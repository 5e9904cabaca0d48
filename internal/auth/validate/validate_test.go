package validate_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/validate"
	"github.com/stretchr/testify/require"
)

func messages(t *testing.T, err error) []string {
	t.Helper()
	var verr *validate.Error
	require.True(t, errors.As(err, &verr), "expected *validate.Error, got %v", err)
	return verr.Messages()
}

func ptr[T any](v T) *T { return &v }

func TestRegistration(t *testing.T) {
	t.Run("normalizes valid input", func(t *testing.T) {
		out, err := validate.ValidateRegistration(validate.Registration{
			Name:            "  Alice Smith ",
			Email:           " Alice@Example.COM ",
			Password:        "Sup3r!secret",
			ConfirmPassword: "Sup3r!secret",
		})
		require.NoError(t, err)
		require.Equal(t, "Alice Smith", out.Name)
		require.Equal(t, "alice@example.com", out.Email)
	})

	t.Run("collects every error", func(t *testing.T) {
		_, err := validate.ValidateRegistration(validate.Registration{
			Name:            "A1",
			Email:           "not-an-email",
			Password:        "password1",
			ConfirmPassword: "password2",
		})
		require.Equal(t, []string{
			"Name can only contain letters and spaces",
			"Please enter a valid email address",
			"Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character (!@#$%^&*)",
			"Passwords do not match",
		}, messages(t, err))
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := validate.ValidateRegistration(validate.Registration{})
		require.Equal(t, []string{
			"Name is required",
			"Email is required",
			"Password is required",
			"Password confirmation is required",
		}, messages(t, err))
	})

	t.Run("lengths", func(t *testing.T) {
		_, err := validate.ValidateRegistration(validate.Registration{
			Name:            "A",
			Email:           strings.Repeat("a", 250) + "@example.com",
			Password:        "Aa1!",
			ConfirmPassword: "Aa1!",
		})
		require.Equal(t, []string{
			"Name must be at least 2 characters long",
			"Email cannot exceed 255 characters",
			"Password must be at least 8 characters long",
		}, messages(t, err))
	})
}

func TestLogin(t *testing.T) {
	out, err := validate.ValidateLogin(validate.Login{Email: "USER@example.com", Password: "x"})
	require.NoError(t, err)
	require.Equal(t, domain.MethodLocal, out.AuthMethod)
	require.Equal(t, "user@example.com", out.Email)

	_, err = validate.ValidateLogin(validate.Login{Email: "user@example.com", Password: "x", AuthMethod: "oauth"})
	require.Equal(t, []string{"Invalid authentication method"}, messages(t, err))

	_, err = validate.ValidateLogin(validate.Login{Email: "user@localhost", Password: strings.Repeat("x", 129)})
	require.Equal(t, []string{
		"Please enter a valid email address",
		"Password cannot exceed 128 characters",
	}, messages(t, err))
}

func TestDirectoryLogin(t *testing.T) {
	out, err := validate.ValidateDirectoryLogin(validate.DirectoryLogin{Username: " john.doe ", Password: "password123", AuthMethod: "ldap"})
	require.NoError(t, err)
	require.Equal(t, "john.doe", out.Username)

	_, err = validate.ValidateDirectoryLogin(validate.DirectoryLogin{Password: "", AuthMethod: "local"})
	require.Equal(t, []string{
		"Username is required",
		"Password is required",
		"Invalid authentication method for LDAP",
	}, messages(t, err))

	_, err = validate.ValidateDirectoryLogin(validate.DirectoryLogin{Username: "x", Password: "y"})
	require.Equal(t, []string{"Authentication method is required"}, messages(t, err))
}

func TestProfileAndPasswordChange(t *testing.T) {
	_, err := validate.ValidateProfile(validate.Profile{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)

	_, err = validate.ValidatePasswordChange(validate.PasswordChange{
		CurrentPassword:    "",
		NewPassword:        "short",
		ConfirmNewPassword: "other",
	})
	require.Equal(t, []string{
		"Current password is required",
		"New password must be at least 8 characters long",
		"New passwords do not match",
	}, messages(t, err))

	_, err = validate.ValidatePasswordChange(validate.PasswordChange{
		CurrentPassword:    "old",
		NewPassword:        "N3w!password",
		ConfirmNewPassword: "N3w!password",
	})
	require.NoError(t, err)
}

func TestAdminCreate(t *testing.T) {
	tests := []struct {
		name string
		in   validate.AdminCreate
		want []string
	}{
		{
			name: "local requires strong password",
			in:   validate.AdminCreate{Name: "Carol", Email: "carol@example.com", Role: domain.RoleUser},
			want: []string{"Password is required for local authentication"},
		},
		{
			name: "ldap ignores password",
			in:   validate.AdminCreate{Name: "Carol", Email: "carol@example.com", Role: domain.RoleAdmin, AuthMethod: domain.MethodDirectory, Password: "x"},
		},
		{
			name: "role required",
			in:   validate.AdminCreate{Name: "Carol", Email: "carol@example.com", AuthMethod: domain.MethodDirectory},
			want: []string{"Role is required"},
		},
		{
			name: "bad role and method",
			in:   validate.AdminCreate{Name: "Carol", Email: "carol@example.com", Role: "root", AuthMethod: "oauth"},
			want: []string{`Role must be either "user" or "admin"`, `Authentication method must be either "local" or "ldap"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := validate.ValidateAdminCreate(tt.in)
			if tt.want == nil {
				require.NoError(t, err)
				require.Empty(t, out.Password)
				return
			}
			require.Equal(t, tt.want, messages(t, err))
		})
	}

	out, err := validate.ValidateAdminCreate(validate.AdminCreate{Name: "Dan", Email: "DAN@example.com", Role: domain.RoleUser, Password: "Adm1n!pass"})
	require.NoError(t, err)
	require.Equal(t, domain.MethodLocal, out.AuthMethod)
	require.Equal(t, "dan@example.com", out.Email)
}

func TestAdminUpdate(t *testing.T) {
	_, err := validate.ValidateAdminUpdate(validate.AdminUpdate{})
	require.Equal(t, []string{"No valid updates provided"}, messages(t, err))

	out, err := validate.ValidateAdminUpdate(validate.AdminUpdate{Email: ptr(" New@Example.com"), IsActive: ptr(false)})
	require.NoError(t, err)
	require.Equal(t, "new@example.com", *out.Email)

	role := domain.Role("owner")
	_, err = validate.ValidateAdminUpdate(validate.AdminUpdate{Name: ptr("x"), Role: &role})
	require.Equal(t, []string{
		"Name must be at least 2 characters long",
		`Role must be either "user" or "admin"`,
	}, messages(t, err))
}

func TestIsEmail(t *testing.T) {
	for s, want := range map[string]bool{
		"a@b.co":                     true,
		"first.last@sub.example.org": true,
		"a@b":                        false,
		"a@@b.co":                    false,
		"Alice <a@b.co>":             false,
		"a b@c.de":                   false,
		"@b.co":                      false,
		"a@b..co":                    false,
	} {
		require.Equal(t, want, validate.IsEmail(s), s)
	}
}

func TestFieldNames(t *testing.T) {
	_, err := validate.ValidatePasswordChange(validate.PasswordChange{CurrentPassword: "old", NewPassword: "N3w!password"})
	var verr *validate.Error
	require.True(t, errors.As(err, &verr))
	require.Equal(t, []validate.FieldError{
		{Field: "confirmNewPassword", Message: "Password confirmation is required"},
	}, verr.Fields)

	_, err = validate.ValidateAdminCreate(validate.AdminCreate{Name: "Erin", Email: "erin@example.com", Role: domain.RoleUser, Password: "weakpass"})
	require.True(t, errors.As(err, &verr))
	require.Equal(t, []validate.FieldError{
		{Field: "password", Message: "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character (!@#$%^&*)"},
	}, verr.Fields)
}

func TestAdminCreateUnknownMethodSkipsPassword(t *testing.T) {
	_, err := validate.ValidateAdminCreate(validate.AdminCreate{Name: "Erin", Email: "erin@example.com", Role: domain.RoleUser, AuthMethod: "oauth", Password: "weak"})
	require.Equal(t, []string{`Authentication method must be either "local" or "ldap"`}, messages(t, err))
}

func TestAdminUpdateBlankFields(t *testing.T) {
	_, err := validate.ValidateAdminUpdate(validate.AdminUpdate{Name: ptr("  "), Email: ptr(""), Role: ptr(domain.Role(""))})
	require.Equal(t, []string{
		"Name is required",
		"Email is required",
		`Role must be either "user" or "admin"`,
	}, messages(t, err))
}
