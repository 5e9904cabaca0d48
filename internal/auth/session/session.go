// Package session keeps the login state in a client-held cookie. The state
// is signed as an HS256 JWT and the token is then sealed with AES-GCM, so the
// client can neither read nor alter it. No server-side table exists.
package session

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
	"github.com/gitsumitsinghpw/auth-app/pkg/cryptox"
	"github.com/gitsumitsinghpw/auth-app/pkg/jwtx"
)

const (
	DefaultCookieName = "secure-auth-session"
	DefaultTTL        = 7 * 24 * time.Hour
	DefaultIssuer     = "auth-app"

	purpose   = "session"
	aeadLabel = "session-cookie"
)

// Data is the session payload.
type Data struct {
	IsLoggedIn    bool                `json:"isLoggedIn"`
	User          *domain.SessionUser `json:"user,omitempty"`
	LoginAttempts int                 `json:"loginAttempts"`
	LastAttempt   int64               `json:"lastAttempt,omitempty"`
	IssuedAt      int64               `json:"issuedAt,omitempty"`
}

// Empty is the canonical logged-out session.
func Empty() Data { return Data{} }

func (d Data) IsAdmin() bool {
	return d.IsLoggedIn && d.User != nil && d.User.Role == domain.RoleAdmin
}

type claims struct {
	jwtx.Claims
	Session Data `json:"session"`
}

type Config struct {
	// Secret must be at least jwtx.MinSecretLen bytes.
	Secret     []byte
	CookieName string
	TTL        time.Duration
	// Secure marks the cookie Secure; set in production.
	Secure bool
	Issuer string
}

// Manager seals and opens session cookies.
type Manager struct {
	signer *jwtx.HS256
	aead   *cryptox.AEAD
	name   string
	ttl    time.Duration
	secure bool
	issuer string

	// Now is the session clock; tests replace it.
	Now func() time.Time
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}

	signer, err := jwtx.NewHS256(cfg.Secret, cfg.Issuer, nil)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	aead, err := cryptox.NewAEAD(cfg.Secret, aeadLabel)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	m := &Manager{
		signer: signer,
		aead:   aead,
		name:   cfg.CookieName,
		ttl:    cfg.TTL,
		secure: cfg.Secure,
		issuer: cfg.Issuer,
		Now:    time.Now,
	}
	signer.Now = func() time.Time { return m.Now() }
	return m, nil
}

func (m *Manager) CookieName() string { return m.name }
func (m *Manager) TTL() time.Duration { return m.ttl }

// Seal stamps d with the current time and returns the cookie value.
func (m *Manager) Seal(d Data) (string, error) {
	value, _, err := m.seal(d, m.Now())
	return value, err
}

func (m *Manager) seal(d Data, now time.Time) (string, Data, error) {
	d.IssuedAt = now.UnixMilli()

	subject := ""
	if d.User != nil {
		subject = d.User.ID
	}
	c := &claims{
		Claims:  jwtx.NewClaims(subject, purpose, m.ttl, m.issuer, nil, now),
		Session: d,
	}
	token, err := m.signer.Sign(c)
	if err != nil {
		return "", Data{}, fmt.Errorf("session: %w", err)
	}

	sealed, err := m.aead.Seal([]byte(token), []byte(m.name))
	if err != nil {
		return "", Data{}, fmt.Errorf("session: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sealed), d, nil
}

var errInconsistent = errors.New("session: logged in without a user")

// Open reverses Seal. Any failure means the value cannot be trusted.
func (m *Manager) Open(value string) (Data, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return Data{}, fmt.Errorf("session: decode: %w", err)
	}
	token, err := m.aead.Open(sealed, []byte(m.name))
	if err != nil {
		return Data{}, fmt.Errorf("session: %w", err)
	}

	var c claims
	if err := m.signer.Verify(string(token), &c, purpose); err != nil {
		return Data{}, fmt.Errorf("session: %w", err)
	}
	if c.Session.IsLoggedIn && c.Session.User == nil {
		return Data{}, errInconsistent
	}
	return c.Session, nil
}

// Create writes a fresh logged-in session for user.
func (m *Manager) Create(w http.ResponseWriter, user domain.SessionUser) (Data, error) {
	d := Data{IsLoggedIn: true, User: &user}
	return m.write(w, d)
}

// Read returns the request's session. A missing, tampered, expired or
// undecodable cookie yields Empty.
func (m *Manager) Read(r *http.Request) Data {
	c, err := r.Cookie(m.name)
	if err != nil || c.Value == "" {
		return Empty()
	}
	d, err := m.Open(c.Value)
	if err != nil {
		return Empty()
	}
	return d
}

// Update applies fn to the current session and writes the result.
func (m *Manager) Update(w http.ResponseWriter, r *http.Request, fn func(*Data)) (Data, error) {
	d := m.Read(r)
	fn(&d)
	if d.IsLoggedIn && d.User == nil {
		return Data{}, errInconsistent
	}
	return m.write(w, d)
}

// Destroy expires the cookie. Calling it without a session is harmless.
func (m *Manager) Destroy(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Refresh re-seals a logged-in session once more than half its lifetime has
// passed. It reports whether a cookie was written.
func (m *Manager) Refresh(w http.ResponseWriter, d Data) (bool, error) {
	if !d.IsLoggedIn {
		return false, nil
	}
	age := m.Now().Sub(time.UnixMilli(d.IssuedAt))
	if age <= m.ttl/2 {
		return false, nil
	}
	if _, err := m.write(w, d); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) write(w http.ResponseWriter, d Data) (Data, error) {
	now := m.Now()
	value, d, err := m.seal(d, now)
	if err != nil {
		return Data{}, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		Expires:  now.Add(m.ttl),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return d, nil
}
