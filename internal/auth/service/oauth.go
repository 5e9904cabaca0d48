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
	"github.com/gitsumitsinghpw/auth-app/pkg/idx"
	"github.com/gitsumitsinghpw/auth-app/pkg/jwtx"
	"github.com/gitsumitsinghpw/auth-app/pkg/slogx"
)

// Profile is an identity already verified by an OAuth provider.
type Profile struct {
	Provider      string
	ProviderID    string
	Email         string
	Name          string
	Avatar        string
	EmailVerified bool
}

// OAuthResolver maps a verified profile onto an account, creating one on
// first sight.
type OAuthResolver struct {
	Store store.Store
	Now   func() time.Time
}

func (s *OAuthResolver) Authenticate(ctx context.Context, c Credentials) (domain.Account, error) {
	oc, ok := c.(OAuthCredentials)
	if !ok {
		return domain.Account{}, ErrUnsupportedMethod
	}
	return s.Resolve(ctx, oc.Profile)
}

// Resolve matches on (provider, providerId) and then on email, so an email
// change at the provider keeps pointing at the same account. The role of an
// existing account is never touched.
func (s *OAuthResolver) Resolve(ctx context.Context, p Profile) (domain.Account, error) {
	p.Email = validate.NormalizeEmail(p.Email)
	p.Name = strings.TrimSpace(p.Name)
	if p.Provider == "" || p.ProviderID == "" || p.Email == "" {
		return domain.Account{}, ErrInvalidCredentials
	}

	l := slogx.FromContext(ctx).With(
		slog.String("provider", p.Provider),
		slog.String("provider_id", p.ProviderID),
	)
	now := clock(s.Now)

	var out domain.Account
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		accounts := tx.Accounts()

		a, err := accounts.FindByProviderIdentity(ctx, p.Provider, p.ProviderID)
		if errors.Is(err, store.ErrNotFound) {
			a, err = accounts.FindByEmail(ctx, p.Email)
		}
		switch {
		case errors.Is(err, store.ErrNotFound):
			name := p.Name
			if name == "" {
				name = p.Email
			}
			out = domain.Account{
				ID:            idx.NewAt(now).String(),
				Email:         p.Email,
				Name:          name,
				Role:          domain.RoleUser,
				Method:        domain.MethodOAuth,
				Provider:      p.Provider,
				ProviderID:    p.ProviderID,
				Avatar:        p.Avatar,
				EmailVerified: p.EmailVerified,
				IsActive:      true,
				LastLogin:     &now,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			l.Info("provisioning oauth account")
			return accounts.Create(ctx, out)
		case err != nil:
			return err
		}

		if !a.IsActive {
			return ErrAccountInactive
		}
		if p.Avatar != "" {
			a.Avatar = p.Avatar
		}
		if p.Name != "" {
			a.Name = p.Name
		}
		a = domain.ApplySuccess(a, now)
		a.UpdatedAt = now
		out = a
		return accounts.Update(ctx, a)
	})
	switch {
	case errors.Is(err, ErrAccountInactive):
		return domain.Account{}, err
	case err != nil:
		l.Error("failed to resolve oauth account", "error", err)
		return domain.Account{}, unavailable("resolve oauth account", err)
	}
	return out, nil
}

const brokerPurpose = "oauth"

// BrokerVerifier checks the HS256 assertions minted by the OAuth handshake
// component once it has talked to the provider.
type BrokerVerifier struct {
	signer *jwtx.HS256
}

type assertionClaims struct {
	jwtx.Claims
	Provider      string `json:"provider"`
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

func NewBrokerVerifier(secret []byte) (*BrokerVerifier, error) {
	signer, err := jwtx.NewHS256(secret, "", nil)
	if err != nil {
		return nil, fmt.Errorf("oauth broker: %w", err)
	}
	return &BrokerVerifier{signer: signer}, nil
}

// SetClock replaces the verification clock.
func (v *BrokerVerifier) SetClock(now func() time.Time) { v.signer.Now = now }

// Verify returns the profile carried by assertion.
func (v *BrokerVerifier) Verify(assertion string) (Profile, error) {
	var c assertionClaims
	if err := v.signer.Verify(assertion, &c, brokerPurpose); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return Profile{
		Provider:      c.Provider,
		ProviderID:    c.Subject,
		Email:         c.Email,
		Name:          c.Name,
		Avatar:        c.Picture,
		EmailVerified: c.EmailVerified,
	}, nil
}

// Sign mints an assertion for p, as the handshake component does.
func (v *BrokerVerifier) Sign(p Profile, ttl time.Duration) (string, error) {
	c := &assertionClaims{
		Claims:        jwtx.NewClaims(p.ProviderID, brokerPurpose, ttl, "", nil, v.signer.Now()),
		Provider:      p.Provider,
		Email:         p.Email,
		Name:          p.Name,
		Picture:       p.Avatar,
		EmailVerified: p.EmailVerified,
	}
	return v.signer.Sign(c)
}
