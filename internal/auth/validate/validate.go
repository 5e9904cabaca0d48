// Package validate checks and normalizes request input. Every schema reports
// all failing fields at once.
package validate

import (
	"errors"
	"net/mail"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error lists every field that failed validation, in schema order.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

// Messages returns the human readable messages in order.
func (e *Error) Messages() []string {
	out := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = f.Message
	}
	return out
}

const (
	passwordRules = "required,min=8,max=128,strongpw"
	specials      = "!@#$%^&*"
)

var (
	reName = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	engine = newEngine()
)

func newEngine() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	custom := map[string]func(string) bool{
		"personname": reName.MatchString,
		"strongpw":   StrongPassword,
		"mailbox":    IsEmail,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		}); err != nil {
			panic(err)
		}
	}
	return v
}

// errs collects field errors for one schema run.
type errs []FieldError

func (es *errs) add(field, msg string) {
	*es = append(*es, FieldError{Field: field, Message: msg})
}

// collect appends the messages for a validator result. Struct errors carry
// their own field names; field and namespace name the value for Var checks.
func (es *errs) collect(err error, field, namespace string) {
	if err == nil {
		return
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		es.add(field, err.Error())
		return
	}
	for _, fe := range ves {
		f, ns := field, namespace
		if fe.StructNamespace() != "" {
			f, ns = fe.Field(), fe.StructNamespace()
		}
		es.add(f, message(ns, fe))
	}
}

func (es errs) err() error {
	if len(es) == 0 {
		return nil
	}
	return &Error{Fields: es}
}

// check runs the struct tags of in.
func check(in any) errs {
	var es errs
	es.collect(engine.Struct(in), "", "")
	return es
}

// IsEmail reports whether s is a bare address with a dotted domain.
func IsEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" {
			return false
		}
	}
	return true
}

// StrongPassword reports whether pw has a lowercase letter, an uppercase
// letter, a digit and one of !@#$%^&*.
func StrongPassword(pw string) bool {
	var lower, upper, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(specials, r):
			special = true
		}
	}
	return lower && upper && digit && special
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
