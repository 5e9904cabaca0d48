package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/store"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/validate"
	"github.com/gitsumitsinghpw/auth-app/pkg/cryptox"
	"github.com/gitsumitsinghpw/auth-app/pkg/idx"
	"github.com/gitsumitsinghpw/auth-app/pkg/slogx"
)

// AccountService owns account creation and self-service changes. Passwords
// enter as plaintext and are hashed here.
type AccountService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
	Now    func() time.Time
}

// NewAccount describes an account to create. Password is only used for
// local accounts.
type NewAccount struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
	Method   domain.AuthMethod
	// Username is the directory uid of an ldap account. It defaults to the
	// local part of Email.
	Username string
	// EmailVerified is forced on for non-local accounts.
	EmailVerified bool
}

func (s *AccountService) Create(ctx context.Context, in NewAccount) (domain.Account, error) {
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if in.Method == "" {
		in.Method = domain.MethodLocal
	}
	if !in.Role.Valid() || !in.Method.Valid() {
		return domain.Account{}, fmt.Errorf("create account: invalid role %q or method %q", in.Role, in.Method)
	}

	now := clock(s.Now)
	a := domain.Account{
		ID:            idx.NewAt(now).String(),
		Email:         validate.NormalizeEmail(in.Email),
		Name:          in.Name,
		Role:          in.Role,
		Method:        in.Method,
		EmailVerified: in.EmailVerified || in.Method != domain.MethodLocal,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.Method == domain.MethodDirectory {
		uid := strings.TrimSpace(in.Username)
		if uid == "" {
			uid, _, _ = strings.Cut(a.Email, "@")
		}
		a.Provider = domain.ProviderDirectory
		a.ProviderID = uid
	}
	if in.Method == domain.MethodLocal {
		hash, err := s.Hasher.Hash(in.Password)
		if err != nil {
			return domain.Account{}, fmt.Errorf("hash password: %w", err)
		}
		a.PasswordHash = hash
	}

	if err := s.Store.Accounts().Create(ctx, a); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, ErrConflict
		}
		slogx.FromContext(ctx).Error("failed to create account", "error", err)
		return domain.Account{}, unavailable("create account", err)
	}

	slogx.FromContext(ctx).Info("account created",
		slog.String("account_id", a.ID),
		slog.String("method", string(a.Method)),
		slog.String("role", string(a.Role)),
	)
	return a, nil
}

// Register creates a local user from a validated registration.
func (s *AccountService) Register(ctx context.Context, r validate.Registration) (domain.Account, error) {
	return s.Create(ctx, NewAccount{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		Role:     domain.RoleUser,
		Method:   domain.MethodLocal,
	})
}

func (s *AccountService) Get(ctx context.Context, id string) (domain.Account, error) {
	a, err := s.Store.Accounts().FindByID(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.Account{}, ErrNotFound
	case err != nil:
		return domain.Account{}, unavailable("find account", err)
	}
	return a, nil
}

// UpdateProfile changes the caller's own name and email.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, p validate.Profile) (domain.Account, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}
	if err := s.ensureEmailFree(ctx, p.Email, a.ID); err != nil {
		return domain.Account{}, err
	}

	a.Name = p.Name
	a.Email = p.Email
	a.UpdatedAt = clock(s.Now)
	return a, s.save(ctx, a)
}

// ChangePassword replaces a local account's password after checking the
// current one.
func (s *AccountService) ChangePassword(ctx context.Context, id string, pc validate.PasswordChange) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if a.Method != domain.MethodLocal {
		return ErrPasswordNotManaged
	}

	if err := s.Hasher.Verify(pc.CurrentPassword, a.PasswordHash); err != nil {
		slogx.FromContext(ctx).Info("password change rejected", slog.String("account_id", a.ID))
		return ErrWrongPassword
	}

	hash, err := s.Hasher.Hash(pc.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	a.PasswordHash = hash
	a.UpdatedAt = clock(s.Now)
	if err := s.save(ctx, a); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("password changed", slog.String("account_id", a.ID))
	return nil
}

func (s *AccountService) ensureEmailFree(ctx context.Context, email, ownerID string) error {
	other, err := s.Store.Accounts().FindByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return unavailable("find account", err)
	case other.ID != ownerID:
		return ErrConflict
	}
	return nil
}

func (s *AccountService) save(ctx context.Context, a domain.Account) error {
	err := s.Store.Accounts().Update(ctx, a)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrConflict
	}
	slogx.FromContext(ctx).Error("failed to update account", slog.String("account_id", a.ID), "error", err)
	return unavailable("update account", err)
}
