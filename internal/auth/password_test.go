package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasherRoundTrip(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	for _, password := range []string{"password1", "correct horse battery staple", "ünïcödé-pässwörd"} {
		hash, err := h.Hash(password)
		require.NoError(t, err)
		require.NotEqual(t, password, hash)
		require.True(t, h.Verify(password, hash))
		require.False(t, h.Verify(password+"x", hash))
	}
}

func TestPasswordHasherSalts(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	first, err := h.Hash("password1")
	require.NoError(t, err)
	second, err := h.Hash("password1")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestPasswordHasherMalformedHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	require.False(t, h.Verify("password1", ""))
	require.False(t, h.Verify("password1", "not-a-bcrypt-hash"))
	require.NotPanics(t, func() { h.VerifyDummy("password1") })
}

func TestPasswordHasherRejectsEmpty(t *testing.T) {
	_, err := NewPasswordHasher(bcrypt.MinCost).Hash("")
	require.Error(t, err)
}

func TestNewPasswordHasherCostFallback(t *testing.T) {
	require.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	require.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).cost)
	require.Equal(t, 12, NewPasswordHasher(12).cost)
}

func TestPasswordHasherLimitIsInBytes(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("p", MaxPasswordBytes))
	require.NoError(t, err)

	// 20 runes, 80 bytes.
	_, err = h.Hash(strings.Repeat("😀", 20))
	require.ErrorIs(t, err, ErrPasswordTooLong)
}
