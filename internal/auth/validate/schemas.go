package validate

import (
	"strings"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
)

// Passwords are compared verbatim and never trimmed.

type Registration struct {
	Name            string `json:"name" validate:"required,min=2,max=100,personname"`
	Email           string `json:"email" validate:"required,max=255,email,mailbox"`
	Password        string `json:"password" validate:"required,min=8,max=128,strongpw"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func ValidateRegistration(in Registration) (Registration, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	return in, check(in).err()
}

type Login struct {
	Email      string            `json:"email" validate:"required,max=255,email,mailbox"`
	Password   string            `json:"password" validate:"required,max=128"`
	AuthMethod domain.AuthMethod `json:"authMethod" validate:"oneof=local ldap"`
}

// ValidateLogin checks an email/password login. AuthMethod defaults to
// local.
func ValidateLogin(in Login) (Login, error) {
	in.Email = NormalizeEmail(in.Email)
	in.AuthMethod = domain.AuthMethod(strings.TrimSpace(string(in.AuthMethod)))
	if in.AuthMethod == "" {
		in.AuthMethod = domain.MethodLocal
	}
	return in, check(in).err()
}

type DirectoryLogin struct {
	Username   string            `json:"username" validate:"required,max=255"`
	Password   string            `json:"password" validate:"required,max=128"`
	AuthMethod domain.AuthMethod `json:"authMethod" validate:"required,eq=ldap"`
}

// ValidateDirectoryLogin checks a directory login. Username is a uid or an
// email address.
func ValidateDirectoryLogin(in DirectoryLogin) (DirectoryLogin, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.AuthMethod = domain.AuthMethod(strings.TrimSpace(string(in.AuthMethod)))
	return in, check(in).err()
}

type Profile struct {
	Name  string `json:"name" validate:"required,min=2,max=100,personname"`
	Email string `json:"email" validate:"required,max=255,email,mailbox"`
}

func ValidateProfile(in Profile) (Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	return in, check(in).err()
}

type PasswordChange struct {
	CurrentPassword    string `json:"currentPassword" validate:"required,max=128"`
	NewPassword        string `json:"newPassword" validate:"required,min=8,max=128,strongpw"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required,eqfield=NewPassword"`
}

func ValidatePasswordChange(in PasswordChange) (PasswordChange, error) {
	return in, check(in).err()
}

// AdminCreate is an admin-created account. Password has no tags: it is
// checked only for local accounts.
type AdminCreate struct {
	Name       string            `json:"name" validate:"required,min=2,max=100,personname"`
	Email      string            `json:"email" validate:"required,max=255,email,mailbox"`
	Role       domain.Role       `json:"role" validate:"required,oneof=user admin"`
	AuthMethod domain.AuthMethod `json:"authMethod" validate:"oneof=local ldap"`
	Password   string            `json:"password,omitempty"`
	Username   string            `json:"username,omitempty" validate:"max=255"`
}

// ValidateAdminCreate checks an admin-created account. A password is only
// required, and only kept, for local accounts. Directory accounts get a
// username, the local part of the email when none is given.
func ValidateAdminCreate(in AdminCreate) (AdminCreate, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	in.Role = domain.Role(strings.TrimSpace(string(in.Role)))
	in.AuthMethod = domain.AuthMethod(strings.TrimSpace(string(in.AuthMethod)))
	if in.AuthMethod == "" {
		in.AuthMethod = domain.MethodLocal
	}
	in.Username = strings.TrimSpace(in.Username)
	switch in.AuthMethod {
	case domain.MethodLocal:
		in.Username = ""
	case domain.MethodDirectory:
		in.Password = ""
		if in.Username == "" {
			in.Username, _, _ = strings.Cut(in.Email, "@")
		}
	default:
		in.Password = ""
	}

	es := check(in)
	if in.AuthMethod == domain.MethodLocal {
		es.collect(engine.Var(in.Password, passwordRules), "password", "AdminCreate.Password")
	}
	return in, es.err()
}

// AdminUpdate holds the fields an admin may change. Nil fields are left
// untouched.
type AdminUpdate struct {
	Name          *string      `json:"name,omitempty" validate:"omitnil,required,min=2,max=100,personname"`
	Email         *string      `json:"email,omitempty" validate:"omitnil,required,max=255,email,mailbox"`
	Role          *domain.Role `json:"role,omitempty" validate:"omitnil,oneof=user admin"`
	IsActive      *bool        `json:"isActive,omitempty"`
	EmailVerified *bool        `json:"emailVerified,omitempty"`
}

func (u AdminUpdate) empty() bool {
	return u.Name == nil && u.Email == nil && u.Role == nil && u.IsActive == nil && u.EmailVerified == nil
}

func ValidateAdminUpdate(in AdminUpdate) (AdminUpdate, error) {
	if in.empty() {
		var es errs
		es.add("", "No valid updates provided")
		return in, es.err()
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		in.Email = &email
	}
	return in, check(in).err()
}
