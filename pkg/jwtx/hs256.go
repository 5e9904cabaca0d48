package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is the shortest HMAC secret NewHS256 accepts.
const MinSecretLen = 32

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrPurpose     = errors.New("jwtx: purpose mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrWeakSecret  = errors.New("jwtx: secret shorter than 32 bytes")
)

// HS256 signs and verifies tokens with a shared HMAC secret.
type HS256 struct {
	key      []byte
	issuer   string
	audience []string
	leeway   time.Duration

	// Now is the verification clock; tests replace it.
	Now func() time.Time
}

func NewHS256(secret []byte, issuer string, audience []string) (*HS256, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	return &HS256{
		key:      append([]byte(nil), secret...),
		issuer:   issuer,
		audience: audience,
		leeway:   5 * time.Second,
		Now:      time.Now,
	}, nil
}

func (h *HS256) Issuer() string     { return h.issuer }
func (h *HS256) Audience() []string { return h.audience }

// Sign returns the compact serialisation of claims.
func (h *HS256) Sign(claims Token) (string, error) {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return s, nil
}

// Verify parses tokenStr into dst and checks signature, time window, issuer,
// audience and purpose.
func (h *HS256) Verify(tokenStr string, dst Token, purpose string) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(h.Now),
		jwt.WithLeeway(h.leeway),
		jwt.WithExpirationRequired(),
	)

	_, err := parser.ParseWithClaims(tokenStr, dst, func(*jwt.Token) (any, error) {
		return h.key, nil
	})
	if err != nil {
		return mapParseError(err)
	}

	c := dst.Base()
	if err := c.ValidateIssuer(h.issuer); err != nil {
		return err
	}
	if err := c.ValidateAudience(h.audience); err != nil {
		return err
	}
	return c.ValidatePurpose(purpose)
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSig
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
