package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAEADRoundTrip(t *testing.T) {
	a, err := NewAEAD([]byte("0123456789abcdef0123456789abcdef"), "session")
	require.NoError(t, err)

	sealed, err := a.Seal([]byte("hello"), []byte("aad"))
	require.NoError(t, err)

	plain, err := a.Open(sealed, []byte("aad"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(plain))

	again, err := a.Seal([]byte("hello"), []byte("aad"))
	require.NoError(t, err)
	require.NotEqual(t, sealed, again, "nonce must differ per seal")
}

func TestAEADRejectsTampering(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	a, err := NewAEAD(secret, "session")
	require.NoError(t, err)

	sealed, err := a.Seal([]byte("payload"), nil)
	require.NoError(t, err)

	t.Run("flipped byte", func(t *testing.T) {
		bad := append([]byte(nil), sealed...)
		bad[len(bad)-1] ^= 0x01
		_, err := a.Open(bad, nil)
		require.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := a.Open(sealed[:5], nil)
		require.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("wrong label", func(t *testing.T) {
		other, err := NewAEAD(secret, "csrf")
		require.NoError(t, err)
		_, err = other.Open(sealed, nil)
		require.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("wrong additional data", func(t *testing.T) {
		_, err := a.Open(sealed, []byte("x"))
		require.ErrorIs(t, err, ErrDecrypt)
	})
}

func TestNewAEADEmptySecret(t *testing.T) {
	_, err := NewAEAD(nil, "session")
	require.Error(t, err)
}
