package directory

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/go-ldap/ldap/v3"
)

// LDAP dials a real directory server.
type LDAP struct {
	cfg Config
}

func NewLDAP(cfg Config) *LDAP {
	return &LDAP{cfg: cfg}
}

func (d *LDAP) Dial(ctx context.Context) (Conn, error) {
	if d.cfg.URL == "" {
		return nil, ErrNotConfigured
	}

	dialer := &net.Dialer{Timeout: d.cfg.timeout()}
	c, err := ldap.DialURL(d.cfg.URL, ldap.DialWithDialer(dialer))
	if err != nil {
		return nil, fmt.Errorf("directory: dial %s: %w", d.cfg.URL, err)
	}
	c.SetTimeout(d.cfg.timeout())

	lc := &ldapConn{conn: c, roleAttr: d.cfg.roleAttribute()}
	// go-ldap has no context support; closing the socket unblocks any
	// in-flight operation.
	lc.stop = context.AfterFunc(ctx, lc.release)
	return lc, nil
}

type ldapConn struct {
	conn     *ldap.Conn
	roleAttr string
	stop     func() bool
	once     sync.Once
}

func (c *ldapConn) Bind(ctx context.Context, dn, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if password == "" {
		// An empty password is an unauthenticated bind and always succeeds.
		return ErrInvalidCredentials
	}

	err := c.conn.Bind(dn, password)
	switch {
	case err == nil:
		return nil
	case ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials):
		return ErrInvalidCredentials
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return fmt.Errorf("directory: bind: %w", err)
	}
}

func (c *ldapConn) Search(ctx context.Context, base, filter string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Two results are enough to tell a unique match from an ambiguous one.
	req := ldap.NewSearchRequest(
		base,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases,
		2, 0, false,
		filter,
		[]string{"cn", "mail", "uid", c.roleAttr},
		nil,
	)

	res, err := c.conn.Search(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) || res == nil {
			return nil, fmt.Errorf("directory: search: %w", err)
		}
	}

	out := make([]Entry, 0, len(res.Entries))
	for _, e := range res.Entries {
		out = append(out, Entry{
			DN:   e.DN,
			CN:   e.GetAttributeValue("cn"),
			Mail: e.GetAttributeValue("mail"),
			UID:  e.GetAttributeValue("uid"),
			Role: e.GetAttributeValue(c.roleAttr),
		})
	}
	return out, nil
}

func (c *ldapConn) Close() error {
	c.stop()
	c.release()
	return nil
}

func (c *ldapConn) release() {
	c.once.Do(func() {
		_ = c.conn.Unbind()
		c.conn.Close()
	})
}
