package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCSRFService(t *testing.T) {
	t.Parallel()

	now := testEpoch
	s, err := NewCSRFService([]byte(strings.Repeat("k", 32)), "auth-app")
	require.NoError(t, err)
	s.SetClock(func() time.Time { return now })

	tok, err := s.Issue("acct-1")
	require.NoError(t, err)

	require.NoError(t, s.Verify(tok, "acct-1"))
	require.ErrorIs(t, s.Verify(tok, "acct-2"), ErrInvalidCSRF)
	require.ErrorIs(t, s.Verify(tok+"x", "acct-1"), ErrInvalidCSRF)
	require.ErrorIs(t, s.Verify("", "acct-1"), ErrInvalidCSRF)

	now = now.Add(CSRFTTL + time.Minute)
	require.ErrorIs(t, s.Verify(tok, "acct-1"), ErrInvalidCSRF)

	_, err = NewCSRFService([]byte("short"), "")
	require.Error(t, err)
}
