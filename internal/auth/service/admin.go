package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/store"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/validate"
	"github.com/gitsumitsinghpw/auth-app/pkg/slogx"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50

	// RecentWindow is how far back Stats counts an account as recent.
	RecentWindow = 30 * 24 * time.Hour
)

// AdminService backs the admin user-management API.
type AdminService struct {
	Accounts *AccountService
}

func (s *AdminService) store() store.Store { return s.Accounts.Store }

type ListQuery struct {
	Page   int
	Limit  int
	Search string
	Role   domain.Role
}

// Normalize applies the paging defaults and bounds.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.Limit < 1:
		q.Limit = DefaultPageSize
	case q.Limit > MaxPageSize:
		q.Limit = MaxPageSize
	}
	if !q.Role.Valid() {
		q.Role = ""
	}
	return q
}

type Page struct {
	Accounts   []domain.Account
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

func (p Page) HasNext() bool { return p.Page < p.TotalPages }
func (p Page) HasPrev() bool { return p.Page > 1 }

// List returns one page of accounts, newest first.
func (s *AdminService) List(ctx context.Context, q ListQuery) (Page, error) {
	q = q.Normalize()
	f := store.AccountFilter{Search: q.Search, Role: q.Role}

	accounts := s.store().Accounts()
	total, err := accounts.Count(ctx, f)
	if err != nil {
		return Page{}, unavailable("count accounts", err)
	}
	items, err := accounts.List(ctx, f, (q.Page-1)*q.Limit, q.Limit)
	if err != nil {
		return Page{}, unavailable("list accounts", err)
	}

	return Page{
		Accounts:   items,
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: (total + q.Limit - 1) / q.Limit,
	}, nil
}

func (s *AdminService) Get(ctx context.Context, id string) (domain.Account, error) {
	return s.Accounts.Get(ctx, id)
}

func (s *AdminService) Create(ctx context.Context, in validate.AdminCreate) (domain.Account, error) {
	return s.Accounts.Create(ctx, NewAccount{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Role:     in.Role,
		Method:   in.AuthMethod,
		Username: in.Username,
	})
}

// Update applies u to account id on behalf of actorID. An admin cannot take
// the admin role away from themselves.
func (s *AdminService) Update(ctx context.Context, actorID, id string, u validate.AdminUpdate) (domain.Account, error) {
	if actorID == id && u.Role != nil && *u.Role != domain.RoleAdmin {
		return domain.Account{}, ErrSelfAction
	}

	a, err := s.Accounts.Get(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}

	if u.Email != nil && *u.Email != a.Email {
		if err := s.Accounts.ensureEmailFree(ctx, *u.Email, a.ID); err != nil {
			return domain.Account{}, err
		}
		a.Email = *u.Email
	}
	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.Role != nil {
		a.Role = *u.Role
	}
	if u.IsActive != nil {
		a.IsActive = *u.IsActive
	}
	if u.EmailVerified != nil {
		a.EmailVerified = *u.EmailVerified
	}
	a.UpdatedAt = clock(s.Accounts.Now)

	if err := s.Accounts.save(ctx, a); err != nil {
		return domain.Account{}, err
	}
	slogx.FromContext(ctx).Info("account updated by admin",
		slog.String("actor_id", actorID),
		slog.String("account_id", a.ID),
	)
	return a, nil
}

// Delete removes account id. An admin cannot delete themselves.
func (s *AdminService) Delete(ctx context.Context, actorID, id string) (domain.Account, error) {
	if actorID == id {
		return domain.Account{}, ErrSelfAction
	}

	a, err := s.Accounts.Get(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}
	err = s.store().Accounts().Delete(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.Account{}, ErrNotFound
	case err != nil:
		return domain.Account{}, unavailable("delete account", err)
	}

	slogx.FromContext(ctx).Info("account deleted by admin",
		slog.String("actor_id", actorID),
		slog.String("account_id", a.ID),
	)
	return a, nil
}

type Stats struct {
	Total      int
	Active     int
	Inactive   int
	Admins     int
	Regular    int
	Locked     int
	Verified   int
	Unverified int
	Recent     int
	ByMethod   map[domain.AuthMethod]int
}

func (s *AdminService) Stats(ctx context.Context) (Stats, error) {
	now := clock(s.Accounts.Now)
	since := now.Add(-RecentWindow)
	yes, no := true, false

	accounts := s.store().Accounts()
	var st Stats
	for _, c := range []struct {
		dst *int
		f   store.AccountFilter
	}{
		{&st.Total, store.AccountFilter{}},
		{&st.Active, store.AccountFilter{Active: &yes}},
		{&st.Inactive, store.AccountFilter{Active: &no}},
		{&st.Admins, store.AccountFilter{Role: domain.RoleAdmin}},
		{&st.Regular, store.AccountFilter{Role: domain.RoleUser}},
		{&st.Locked, store.AccountFilter{LockedAt: &now}},
		{&st.Verified, store.AccountFilter{Verified: &yes}},
		{&st.Unverified, store.AccountFilter{Verified: &no}},
		{&st.Recent, store.AccountFilter{CreatedSince: &since}},
	} {
		n, err := accounts.Count(ctx, c.f)
		if err != nil {
			return Stats{}, unavailable("count accounts", err)
		}
		*c.dst = n
	}

	byMethod, err := accounts.CountByMethod(ctx)
	if err != nil {
		return Stats{}, unavailable("count accounts by method", err)
	}
	st.ByMethod = byMethod
	return st, nil
}
