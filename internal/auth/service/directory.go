package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/store"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/validate"
	"github.com/gitsumitsinghpw/auth-app/pkg/directory"
	"github.com/gitsumitsinghpw/auth-app/pkg/idx"
	"github.com/gitsumitsinghpw/auth-app/pkg/slogx"
)

// Identity is what a successful directory bind proves.
type Identity struct {
	UID   string
	Email string
	Name  string
	Role  domain.Role
}

// DirectoryAuthenticator runs bind-search-bind against a directory and
// provisions a shadow account for the user on success.
type DirectoryAuthenticator struct {
	Dialer directory.Dialer
	// Config supplies the service account, search base and timeout. The URL
	// is the Dialer's concern.
	Config directory.Config
	Store  store.Store
	Now    func() time.Time
}

func (s *DirectoryAuthenticator) timeout() time.Duration {
	if s.Config.Timeout > 0 {
		return s.Config.Timeout
	}
	return directory.DefaultTimeout
}

func (s *DirectoryAuthenticator) Authenticate(ctx context.Context, c Credentials) (domain.Account, error) {
	dc, ok := c.(DirectoryCredentials)
	if !ok {
		return domain.Account{}, ErrUnsupportedMethod
	}

	id, err := s.Lookup(ctx, dc.Username, dc.Password)
	if err != nil {
		return domain.Account{}, err
	}
	return s.provision(ctx, id)
}

// Lookup proves username/password against the directory. Not found,
// ambiguous and wrong password all come back as ErrInvalidCredentials; the
// real cause is logged.
func (s *DirectoryAuthenticator) Lookup(ctx context.Context, username, password string) (Identity, error) {
	l := slogx.FromContext(ctx).With(slog.String("username", username))

	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	conn, err := s.Dialer.Dial(ctx)
	if err != nil {
		l.Error("failed to connect to directory", "error", err)
		return Identity{}, unavailable("directory dial", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			l.Warn("failed to close directory connection", "error", err)
		}
	}()

	if err := conn.Bind(ctx, s.Config.BindDN, s.Config.BindPassword); err != nil {
		l.Error("directory service bind failed", "error", err)
		return Identity{}, unavailable("directory service bind", err)
	}

	entries, err := conn.Search(ctx, s.Config.SearchBase, directory.Filter(username))
	if err != nil {
		l.Error("directory search failed", "error", err)
		return Identity{}, unavailable("directory search", err)
	}
	switch len(entries) {
	case 0:
		l.Info("directory user not found")
		return Identity{}, ErrInvalidCredentials
	case 1:
	default:
		l.Warn("directory search is ambiguous", slog.Int("matches", len(entries)))
		return Identity{}, ErrInvalidCredentials
	}
	entry := entries[0]

	if err := conn.Bind(ctx, entry.DN, password); err != nil {
		if errors.Is(err, directory.ErrInvalidCredentials) {
			l.Info("directory user bind rejected")
			return Identity{}, ErrInvalidCredentials
		}
		l.Error("directory user bind failed", "error", err)
		return Identity{}, unavailable("directory user bind", err)
	}

	return identityFromEntry(entry), nil
}

func identityFromEntry(e directory.Entry) Identity {
	id := Identity{
		UID:   e.UID,
		Email: validate.NormalizeEmail(e.Mail),
		Name:  strings.TrimSpace(e.CN),
		Role:  domain.RoleUser,
	}
	if strings.EqualFold(strings.TrimSpace(e.Role), string(domain.RoleAdmin)) {
		id.Role = domain.RoleAdmin
	}
	if id.Name == "" {
		id.Name = id.UID
	}
	return id
}

// provision finds the shadow account by (ldap, uid), then by email, and
// creates it when neither matches.
func (s *DirectoryAuthenticator) provision(ctx context.Context, id Identity) (domain.Account, error) {
	l := slogx.FromContext(ctx).With(slog.String("uid", id.UID))
	if id.Email == "" {
		l.Warn("directory entry has no mail attribute")
		return domain.Account{}, ErrInvalidCredentials
	}
	now := clock(s.Now)

	var out domain.Account
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		accounts := tx.Accounts()

		a, err := accounts.FindByProviderIdentity(ctx, domain.ProviderDirectory, id.UID)
		if errors.Is(err, store.ErrNotFound) {
			a, err = accounts.FindByEmail(ctx, id.Email)
		}
		switch {
		case errors.Is(err, store.ErrNotFound):
			out = domain.Account{
				ID:            idx.NewAt(now).String(),
				Email:         id.Email,
				Name:          id.Name,
				Role:          id.Role,
				Method:        domain.MethodDirectory,
				Provider:      domain.ProviderDirectory,
				ProviderID:    id.UID,
				EmailVerified: true,
				IsActive:      true,
				LastLogin:     &now,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			l.Info("provisioning directory account", slog.String("role", string(id.Role)))
			return accounts.Create(ctx, out)
		case err != nil:
			return err
		}

		if !a.IsActive {
			return ErrAccountInactive
		}
		a = domain.ApplySuccess(a, now)
		if a.Method == domain.MethodDirectory {
			// The directory owns the uid; an admin-assigned one is corrected.
			a.Role = id.Role
			a.Provider = domain.ProviderDirectory
			a.ProviderID = id.UID
		}
		a.UpdatedAt = now
		out = a
		return accounts.Update(ctx, a)
	})
	switch {
	case errors.Is(err, ErrAccountInactive):
		return domain.Account{}, err
	case err != nil:
		l.Error("failed to provision directory account", "error", err)
		return domain.Account{}, unavailable("provision directory account", err)
	}
	return out, nil
}
