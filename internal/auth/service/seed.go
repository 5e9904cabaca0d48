package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/store"
	"github.com/gitsumitsinghpw/auth-app/pkg/slogx"
)

// DevAccounts are seeded into an empty store in development.
var DevAccounts = []NewAccount{
	{Name: "Admin User", Email: "admin@example.com", Password: "AdminPass123!", Role: domain.RoleAdmin, Method: domain.MethodLocal, EmailVerified: true},
	{Name: "Regular User", Email: "user@example.com", Password: "UserPass123!", Role: domain.RoleUser, Method: domain.MethodLocal, EmailVerified: true},
}

// Seed creates accounts when the store holds none. It reports how many were
// created.
func (s *AccountService) Seed(ctx context.Context, accounts []NewAccount) (int, error) {
	n, err := s.Store.Accounts().Count(ctx, store.AccountFilter{})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slogx.FromContext(ctx).Debug("store not empty, skipping seed", slog.Int("accounts", n))
		return 0, nil
	}

	created := 0
	for _, in := range accounts {
		_, err := s.Create(ctx, in)
		switch {
		case errors.Is(err, ErrConflict):
			continue
		case err != nil:
			return created, err
		}
		created++
	}
	slogx.FromContext(ctx).Info("seeded development accounts", slog.Int("created", created))
	return created, nil
}
