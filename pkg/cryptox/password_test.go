package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewHasher("pepper")

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 128)},
		{"unicode password", "пароль🔒密码"},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=4$"))

			require.NoError(t, h.Verify(tt.password, hash))
			require.ErrorIs(t, h.Verify(tt.password+"x", hash), ErrPasswordMismatch)
			require.False(t, h.NeedsRehash(hash))
		})
	}
}

func TestArgon2Params(t *testing.T) {
	_, err := NewHasherWithParams("", Argon2Params{Memory: 8 * 1024, Iterations: 3, Parallelism: 1})
	require.Error(t, err)
	_, err = NewHasherWithParams("", Argon2Params{Memory: 64 * 1024, Iterations: 1, Parallelism: 1})
	require.Error(t, err)

	floor, err := NewHasherWithParams("pepper", MinArgon2Params)
	require.NoError(t, err)
	old, err := floor.Hash("Secret123!")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(old, "$argon2id$v=19$m=19456,t=2,p=1$"))
	require.False(t, floor.NeedsRehash(old))

	// A cost change keeps old hashes valid but flags them for an upgrade.
	h := NewHasher("pepper")
	require.Equal(t, DefaultArgon2Params, h.Params())
	require.NoError(t, h.Verify("Secret123!", old))
	require.True(t, h.NeedsRehash(old))
}

func TestHashIsSalted(t *testing.T) {
	h := NewHasher("")
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestPepperMatters(t *testing.T) {
	hash, err := NewHasher("one").Hash("secret")
	require.NoError(t, err)
	require.ErrorIs(t, NewHasher("two").Verify("secret", hash), ErrPasswordMismatch)
}

func TestVerifyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("UserPass123!"), bcrypt.MinCost)
	require.NoError(t, err)

	h := NewHasher("ignored-for-bcrypt")
	require.NoError(t, h.Verify("UserPass123!", string(legacy)))
	require.ErrorIs(t, h.Verify("wrong", string(legacy)), ErrPasswordMismatch)
	require.True(t, h.NeedsRehash(string(legacy)))
}

func TestVerifyMalformed(t *testing.T) {
	h := NewHasher("")
	for _, bad := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$!!$aGFzaA",
	} {
		require.ErrorIs(t, h.Verify("x", bad), ErrMalformedHash, bad)
		require.True(t, h.NeedsRehash(bad))
	}
}

func TestLoadPepper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pepper")

	first, err := LoadPepper(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := LoadPepper(path)
	require.NoError(t, err)
	require.Equal(t, first, second)

	ephemeral, err := LoadPepper("")
	require.NoError(t, err)
	require.NotEqual(t, first, ephemeral)
}
