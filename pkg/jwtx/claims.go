package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the registered claim set shared by every token this service
// mints, plus a purpose marker so a token minted for one use cannot be
// replayed for another.
type Claims struct {
	jwt.RegisteredClaims

	// Purpose distinguishes token families ("session", "csrf", "oauth").
	Purpose string `json:"purpose,omitempty"`
}

// Token is any claim set built on Claims.
type Token interface {
	jwt.Claims
	Base() *Claims
}

// Base gives embedders access to the shared claims.
func (c *Claims) Base() *Claims { return c }

// NewClaims builds minimally-correct claims valid from now for ttl.
func NewClaims(subject, purpose string, ttl time.Duration, issuer string, audience []string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Purpose: purpose,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks the issuer; an empty expectation is not enforced.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" || c.Issuer == expected {
		return nil
	}
	return ErrIssuer
}

// ValidateAudience passes when any expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

func (c *Claims) ValidatePurpose(expected string) error {
	if expected == "" || c.Purpose == expected {
		return nil
	}
	return ErrPurpose
}
