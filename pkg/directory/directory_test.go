package directory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gitsumitsinghpw/auth-app/pkg/directory"
	"github.com/stretchr/testify/require"
)

var mockCfg = directory.Config{
	URL:          "ldap://mock.invalid",
	BindDN:       "cn=service,dc=example,dc=com",
	BindPassword: "service-secret",
	SearchBase:   "ou=users,dc=example,dc=com",
}

func TestFilter(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"john.doe", "(uid=john.doe)"},
		{"john.doe@example.com", "(mail=john.doe@example.com)"},
		{"*)(uid=*", `(uid=\2a\29\28uid=\2a)`},
		{`a\b`, `(uid=a\5cb)`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, directory.Filter(tt.in))
		})
	}
}

func TestValidateConfig(t *testing.T) {
	require.NoError(t, directory.ValidateConfig(mockCfg))

	cfg := mockCfg
	cfg.BindPassword = "   "
	cfg.SearchBase = ""
	err := directory.ValidateConfig(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "LDAP_BIND_PASSWORD")
	require.Contains(t, err.Error(), "LDAP_SEARCH_BASE")
	require.NotContains(t, err.Error(), "LDAP_URL")
}

func TestMockBindSearch(t *testing.T) {
	m := directory.NewMock(mockCfg)
	ctx := context.Background()

	conn, err := m.Dial(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, m.Open())

	require.NoError(t, conn.Bind(ctx, mockCfg.BindDN, mockCfg.BindPassword))
	require.ErrorIs(t, conn.Bind(ctx, mockCfg.BindDN, "nope"), directory.ErrInvalidCredentials)

	entries, err := conn.Search(ctx, mockCfg.SearchBase, directory.Filter("admin"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Admin User", entries[0].CN)
	require.Equal(t, "admin", entries[0].Role)

	entries, err = conn.Search(ctx, mockCfg.SearchBase, directory.Filter("Jane.Smith@example.com"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "jane.smith", entries[0].UID)

	entries, err = conn.Search(ctx, mockCfg.SearchBase, directory.Filter("*"))
	require.NoError(t, err)
	require.Empty(t, entries, "escaped wildcard is a literal")

	require.NoError(t, conn.Bind(ctx, "cn=john.doe,ou=users,dc=example,dc=com", "password123"))
	require.ErrorIs(t, conn.Bind(ctx, "cn=john.doe,ou=users,dc=example,dc=com", "password456"), directory.ErrInvalidCredentials)
	require.ErrorIs(t, conn.Bind(ctx, "cn=john.doe,ou=users,dc=example,dc=com", ""), directory.ErrInvalidCredentials)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	require.Zero(t, m.Open())

	_, err = conn.Search(ctx, mockCfg.SearchBase, directory.Filter("admin"))
	require.Error(t, err)
}

func TestMockAmbiguous(t *testing.T) {
	m := directory.NewMock(mockCfg)
	m.Add(directory.User{
		Entry:    directory.Entry{DN: "cn=john.doe2,ou=users,dc=example,dc=com", CN: "John Doe II", Mail: "jd2@example.com", UID: "john.doe"},
		Password: "x",
	})

	conn, err := m.Dial(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	entries, err := conn.Search(context.Background(), mockCfg.SearchBase, directory.Filter("john.doe"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestMockRequiresURL(t *testing.T) {
	cfg := mockCfg
	cfg.URL = ""
	_, err := directory.NewMock(cfg).Dial(context.Background())
	require.ErrorIs(t, err, directory.ErrNotConfigured)

	_, err = directory.NewLDAP(cfg).Dial(context.Background())
	require.ErrorIs(t, err, directory.ErrNotConfigured)
}

func TestMockLatencyHonoursContext(t *testing.T) {
	m := directory.NewMock(mockCfg)
	m.Latency = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.Dial(ctx)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	require.Zero(t, m.Open())
}

func TestMockEntriesHidePasswords(t *testing.T) {
	entries := directory.NewMock(mockCfg).Entries()
	require.Len(t, entries, 3)
	uids := []string{entries[0].UID, entries[1].UID, entries[2].UID}
	require.Equal(t, []string{"john.doe", "admin", "jane.smith"}, uids)
}

func TestLDAPDialUnreachable(t *testing.T) {
	cfg := mockCfg
	cfg.URL = "ldap://127.0.0.1:1"
	cfg.Timeout = 200 * time.Millisecond

	_, err := directory.NewLDAP(cfg).Dial(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, directory.ErrNotConfigured)
}
