package directory

import (
	"context"
	"encoding/hex"
	"errors"
	"regexp"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// User is a Mock directory record.
type User struct {
	Entry
	Password string
}

// DefaultUsers seeds a Mock when no users are given.
func DefaultUsers() []User {
	return []User{
		{Entry: Entry{DN: "cn=john.doe,ou=users,dc=example,dc=com", CN: "John Doe", Mail: "john.doe@example.com", UID: "john.doe", Role: "user"}, Password: "password123"},
		{Entry: Entry{DN: "cn=admin,ou=users,dc=example,dc=com", CN: "Admin User", Mail: "admin@ldap.example.com", UID: "admin", Role: "admin"}, Password: "admin123"},
		{Entry: Entry{DN: "cn=jane.smith,ou=users,dc=example,dc=com", CN: "Jane Smith", Mail: "jane.smith@example.com", UID: "jane.smith", Role: "user"}, Password: "password456"},
	}
}

// Mock is an in-process directory. The service account in Config binds
// successfully; users bind with their DN and password.
type Mock struct {
	cfg Config

	// Latency is applied to every operation and respects the context.
	Latency time.Duration

	mu    sync.RWMutex
	users []User
	open  atomic.Int64
}

// NewMock returns a Mock holding users, or DefaultUsers when none are given.
func NewMock(cfg Config, users ...User) *Mock {
	if len(users) == 0 {
		users = DefaultUsers()
	}
	return &Mock{cfg: cfg, users: slices.Clone(users)}
}

// Add appends a record.
func (m *Mock) Add(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, u)
}

// Entries lists the records without their passwords.
func (m *Mock) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, len(m.users))
	for i, u := range m.users {
		out[i] = u.Entry
	}
	return out
}

// Open reports connections dialled but not yet closed.
func (m *Mock) Open() int { return int(m.open.Load()) }

func (m *Mock) Dial(ctx context.Context) (Conn, error) {
	if strings.TrimSpace(m.cfg.URL) == "" {
		return nil, ErrNotConfigured
	}
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.open.Add(1)
	return &mockConn{m: m}, nil
}

func (m *Mock) wait(ctx context.Context) error {
	if m.Latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.Latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type mockConn struct {
	m      *Mock
	closed atomic.Bool
}

var errClosed = errors.New("directory: connection closed")

func (c *mockConn) Bind(ctx context.Context, dn, password string) error {
	if c.closed.Load() {
		return errClosed
	}
	if err := c.m.wait(ctx); err != nil {
		return err
	}
	if password == "" {
		return ErrInvalidCredentials
	}
	if dn == c.m.cfg.BindDN && password == c.m.cfg.BindPassword {
		return nil
	}

	c.m.mu.RLock()
	defer c.m.mu.RUnlock()
	for _, u := range c.m.users {
		if u.DN == dn && u.Password == password {
			return nil
		}
	}
	return ErrInvalidCredentials
}

var simpleFilter = regexp.MustCompile(`^\((uid|mail)=([^)]*)\)$`)

// Search understands (uid=x) and (mail=x); anything else matches every
// record.
func (c *mockConn) Search(ctx context.Context, _ string, filter string) ([]Entry, error) {
	if c.closed.Load() {
		return nil, errClosed
	}
	if err := c.m.wait(ctx); err != nil {
		return nil, err
	}

	c.m.mu.RLock()
	defer c.m.mu.RUnlock()

	match := simpleFilter.FindStringSubmatch(filter)
	var out []Entry
	for _, u := range c.m.users {
		switch {
		case match == nil:
		case match[1] == "uid" && u.UID != unescapeFilter(match[2]):
			continue
		case match[1] == "mail" && !strings.EqualFold(u.Mail, unescapeFilter(match[2])):
			continue
		}
		out = append(out, u.Entry)
	}
	return out, nil
}

func (c *mockConn) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.m.open.Add(-1)
	}
	return nil
}

// unescapeFilter reverses the \XX hex escaping applied by Filter.
func unescapeFilter(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+2 < len(s) {
			if v, err := hex.DecodeString(s[i+1 : i+3]); err == nil {
				b.Write(v)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
