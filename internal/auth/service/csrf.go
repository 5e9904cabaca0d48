package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/gitsumitsinghpw/auth-app/pkg/jwtx"
)

const (
	csrfPurpose = "csrf"
	CSRFTTL     = time.Hour
)

var ErrInvalidCSRF = errors.New("invalid csrf token")

// CSRFService mints short-lived tokens bound to an account id.
type CSRFService struct {
	signer *jwtx.HS256
	ttl    time.Duration
}

func NewCSRFService(secret []byte, issuer string) (*CSRFService, error) {
	signer, err := jwtx.NewHS256(secret, issuer, nil)
	if err != nil {
		return nil, fmt.Errorf("csrf: %w", err)
	}
	return &CSRFService{signer: signer, ttl: CSRFTTL}, nil
}

// SetClock replaces the clock used to issue and verify tokens.
func (s *CSRFService) SetClock(now func() time.Time) { s.signer.Now = now }

func (s *CSRFService) Issue(accountID string) (string, error) {
	c := jwtx.NewClaims(accountID, csrfPurpose, s.ttl, s.signer.Issuer(), nil, s.signer.Now())
	return s.signer.Sign(&c)
}

// Verify checks token and that it was issued to accountID.
func (s *CSRFService) Verify(token, accountID string) error {
	var c jwtx.Claims
	if err := s.signer.Verify(token, &c, csrfPurpose); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCSRF, err)
	}
	if c.Subject != accountID {
		return ErrInvalidCSRF
	}
	return nil
}
