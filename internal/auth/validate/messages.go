package validate

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	msgPasswordTooLong  = "Password cannot exceed 128 characters"
	msgPasswordStrength = "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character (!@#$%^&*)"
	msgEmailInvalid     = "Please enter a valid email address"
	msgRoleInvalid      = `Role must be either "user" or "admin"`
)

// messages maps "Field.tag" to the text shown to the user. A
// "Schema.Field.tag" key overrides the field default for one schema.
var messages = map[string]string{
	"Name.required":   "Name is required",
	"Name.min":        "Name must be at least 2 characters long",
	"Name.max":        "Name cannot exceed 100 characters",
	"Name.personname": "Name can only contain letters and spaces",

	"Email.required": "Email is required",
	"Email.max":      "Email cannot exceed 255 characters",
	"Email.email":    msgEmailInvalid,
	"Email.mailbox":  msgEmailInvalid,

	"Username.required": "Username is required",
	"Username.max":      "Username cannot exceed 255 characters",

	"Password.required": "Password is required",
	"Password.min":      "Password must be at least 8 characters long",
	"Password.max":      msgPasswordTooLong,
	"Password.strongpw": msgPasswordStrength,

	"ConfirmPassword.required": "Password confirmation is required",
	"ConfirmPassword.eqfield":  "Passwords do not match",

	"CurrentPassword.required": "Current password is required",
	"CurrentPassword.max":      msgPasswordTooLong,

	"NewPassword.required": "New password is required",
	"NewPassword.min":      "New password must be at least 8 characters long",
	"NewPassword.max":      msgPasswordTooLong,
	"NewPassword.strongpw": msgPasswordStrength,

	"ConfirmNewPassword.required": "Password confirmation is required",
	"ConfirmNewPassword.eqfield":  "New passwords do not match",

	"Role.required": "Role is required",
	"Role.oneof":    msgRoleInvalid,

	"AuthMethod.oneof": "Invalid authentication method",

	"DirectoryLogin.AuthMethod.required": "Authentication method is required",
	"DirectoryLogin.AuthMethod.eq":       "Invalid authentication method for LDAP",
	"AdminCreate.AuthMethod.oneof":       `Authentication method must be either "local" or "ldap"`,
	"AdminCreate.Password.required":      "Password is required for local authentication",
}

// message resolves the text for a failed rule. namespace is the Go path of
// the field, such as "Registration.Password".
func message(namespace string, fe validator.FieldError) string {
	if m, ok := messages[namespace+"."+fe.Tag()]; ok {
		return m
	}
	field := namespace
	if i := strings.LastIndexByte(namespace, '.'); i >= 0 {
		field = namespace[i+1:]
	}
	if m, ok := messages[field+"."+fe.Tag()]; ok {
		return m
	}
	return fe.Error()
}
