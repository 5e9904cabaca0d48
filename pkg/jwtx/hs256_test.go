package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/gitsumitsinghpw/auth-app/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var (
	secret = []byte(strings.Repeat("s", jwtx.MinSecretLen))
	aud    = []string{"auth-app"}
)

type profileClaims struct {
	jwtx.Claims
	Email string `json:"email"`
}

func newHS(t *testing.T, now time.Time) *jwtx.HS256 {
	t.Helper()
	h, err := jwtx.NewHS256(secret, "auth-app", []string{"auth-app"})
	require.NoError(t, err)
	h.Now = func() time.Time { return now }
	return h
}

func TestHS256RoundTrip(t *testing.T) {
	now := time.Now()
	h := newHS(t, now)

	in := profileClaims{
		Claims: jwtx.NewClaims("user-1", "oauth", time.Minute, "auth-app", []string{"auth-app"}, now),
		Email:  "a@example.com",
	}
	tok, err := h.Sign(&in)
	require.NoError(t, err)

	var out profileClaims
	require.NoError(t, h.Verify(tok, &out, "oauth"))
	require.Equal(t, "user-1", out.Subject)
	require.Equal(t, "a@example.com", out.Email)
}

func TestHS256Rejections(t *testing.T) {
	now := time.Now()
	h := newHS(t, now)

	sign := func(c jwtx.Claims) string {
		tok, err := h.Sign(&c)
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name    string
		token   func() string
		purpose string
		want    error
	}{
		{
			name:    "expired",
			token:   func() string { return sign(jwtx.NewClaims("u", "csrf", time.Minute, "auth-app", aud, now.Add(-time.Hour))) },
			purpose: "csrf",
			want:    jwtx.ErrExpired,
		},
		{
			name:    "wrong purpose",
			token:   func() string { return sign(jwtx.NewClaims("u", "session", time.Minute, "auth-app", aud, now)) },
			purpose: "csrf",
			want:    jwtx.ErrPurpose,
		},
		{
			name:    "wrong issuer",
			token:   func() string { return sign(jwtx.NewClaims("u", "csrf", time.Minute, "someone-else", aud, now)) },
			purpose: "csrf",
			want:    jwtx.ErrIssuer,
		},
		{
			name: "wrong audience",
			token: func() string {
				return sign(jwtx.NewClaims("u", "csrf", time.Minute, "auth-app", []string{"other"}, now))
			},
			purpose: "csrf",
			want:    jwtx.ErrAudience,
		},
		{
			name: "other secret",
			token: func() string {
				other, err := jwtx.NewHS256([]byte(strings.Repeat("x", 40)), "auth-app", nil)
				require.NoError(t, err)
				c := jwtx.NewClaims("u", "csrf", time.Minute, "auth-app", aud, now)
				tok, err := other.Sign(&c)
				require.NoError(t, err)
				return tok
			},
			purpose: "csrf",
			want:    jwtx.ErrInvalidSig,
		},
		{
			name: "alg none",
			token: func() string {
				c := jwtx.NewClaims("u", "csrf", time.Minute, "auth-app", aud, now)
				tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, &c).SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return tok
			},
			purpose: "csrf",
			want:    jwtx.ErrInvalidSig,
		},
		{
			name:    "garbage",
			token:   func() string { return "not.a.jwt" },
			purpose: "csrf",
			want:    jwtx.ErrMalformed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out jwtx.Claims
			err := h.Verify(tc.token(), &out, tc.purpose)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestNewHS256WeakSecret(t *testing.T) {
	_, err := jwtx.NewHS256([]byte("short"), "", nil)
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}

func TestClaimsValidators(t *testing.T) {
	c := jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "a", Audience: []string{"x", "y"}}, Purpose: "csrf"}

	require.NoError(t, c.ValidateIssuer(""))
	require.NoError(t, c.ValidateIssuer("a"))
	require.ErrorIs(t, c.ValidateIssuer("b"), jwtx.ErrIssuer)

	require.NoError(t, c.ValidateAudience(nil))
	require.NoError(t, c.ValidateAudience([]string{"z", "y"}))
	require.ErrorIs(t, c.ValidateAudience([]string{"z"}), jwtx.ErrAudience)

	require.NoError(t, c.ValidatePurpose("csrf"))
	require.ErrorIs(t, c.ValidatePurpose("session"), jwtx.ErrPurpose)
	require.NotEqual(t, jwtx.NewJTI(), jwtx.NewJTI())
}
