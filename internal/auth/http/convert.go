package http

import (
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
	"github.com/gitsumitsinghpw/auth-app/pkg/authsdk"
)

func toSessionUser(u domain.SessionUser) authsdk.SessionUser {
	return authsdk.SessionUser{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       string(u.Role),
		AuthMethod: string(u.AuthMethod),
		Avatar:     u.Avatar,
	}
}

// toUser never exposes the password hash or the raw lock deadline.
func toUser(a domain.Account, now time.Time) authsdk.User {
	return authsdk.User{
		ID:            a.ID,
		Email:         a.Email,
		Name:          a.Name,
		Role:          string(a.Role),
		AuthMethod:    string(a.Method),
		Provider:      a.Provider,
		Avatar:        a.Avatar,
		EmailVerified: a.EmailVerified,
		IsActive:      a.IsActive,
		IsLocked:      a.IsLocked(now),
		LoginAttempts: a.LoginAttempts,
		LastLogin:     a.LastLogin,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toUsers(accounts []domain.Account, now time.Time) []authsdk.User {
	out := make([]authsdk.User, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toUser(a, now))
	}
	return out
}
