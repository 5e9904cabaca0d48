// Package gate decides, per request path and session, whether a request may
// proceed. Decide is pure; Middleware applies it.
package gate

import (
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/session"
)

// Class is the access class of a path.
type Class int

const (
	// Unclassified paths require a session.
	Unclassified Class = iota
	Public
	AuthPage
	AdminArea
	UserArea
)

func (c Class) String() string {
	switch c {
	case Public:
		return "public"
	case AuthPage:
		return "auth"
	case AdminArea:
		return "admin"
	case UserArea:
		return "user"
	default:
		return "protected"
	}
}

var (
	publicPrefixes = []string{
		"/about", "/contact", "/api/health", "/_next", "/favicon.ico",
		"/livez", "/readyz", "/metrics", "/swagger",
		"/api/auth", "/api/dev",
	}
	authPrefixes  = []string{"/login", "/register", "/auth"}
	adminPrefixes = []string{"/admin", "/api/admin"}
	userPrefixes  = []string{"/dashboard", "/profile", "/user", "/api/user"}
)

// Classify returns the class of p. Public wins over auth, auth over admin,
// admin over user. Prefixes match whole path segments.
func Classify(p string) Class {
	switch {
	case p == "/" || matchAny(p, publicPrefixes) || isAsset(p):
		return Public
	case matchAny(p, authPrefixes):
		return AuthPage
	case matchAny(p, adminPrefixes):
		return AdminArea
	case matchAny(p, userPrefixes):
		return UserArea
	default:
		return Unclassified
	}
}

func matchAny(p string, prefixes []string) bool {
	for _, pre := range prefixes {
		if p == pre || strings.HasPrefix(p, pre+"/") {
			return true
		}
	}
	return false
}

// isAsset reports paths that name a file, such as /robots.txt.
func isAsset(p string) bool {
	return !IsAPI(p) && strings.Contains(path.Base(p), ".")
}

// IsAPI reports whether p is a JSON endpoint.
func IsAPI(p string) bool {
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

// Outcome is what the gate does with a request.
type Outcome int

const (
	Allow Outcome = iota
	Redirect
	Deny
)

// Decision is the result of Decide. Location is set for Redirect, Status for
// Deny.
type Decision struct {
	Outcome  Outcome
	Location string
	Status   int
}

func allow() Decision             { return Decision{Outcome: Allow} }
func redirect(to string) Decision { return Decision{Outcome: Redirect, Location: to} }
func deny(status int) Decision    { return Decision{Outcome: Deny, Status: status} }

func homeFor(s session.Data) string {
	if s.IsAdmin() {
		return "/admin"
	}
	return "/dashboard"
}

// Decide applies the access rules for path p and session s.
func Decide(p string, s session.Data) Decision {
	class := Classify(p)
	api := IsAPI(p)

	switch class {
	case Public:
		return allow()
	case AuthPage:
		if s.IsLoggedIn {
			return redirect(homeFor(s))
		}
		return allow()
	}

	if !s.IsLoggedIn {
		if api {
			return deny(http.StatusUnauthorized)
		}
		return redirect("/login?redirectTo=" + url.QueryEscape(p))
	}

	if class == AdminArea && !s.IsAdmin() {
		if api {
			return deny(http.StatusForbidden)
		}
		return redirect("/dashboard")
	}
	return allow()
}
