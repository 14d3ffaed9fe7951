package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("secret123", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, VerifyPassword(hash, "secret123"))
	assert.False(t, VerifyPassword(hash, "secret124"))
	assert.False(t, VerifyPassword(hash, ""))
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	t.Parallel()

	first, err := HashPassword("same-password", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := HashPassword("same-password", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, VerifyPassword(first, "same-password"))
	assert.True(t, VerifyPassword(second, "same-password"))
}

func TestHashPassword_OutOfRangeCostFallsBack(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("secret123", 99)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "secret123"))
}

func TestVerifyPassword_MalformedHashFailsClosed(t *testing.T) {
	t.Parallel()

	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "secret123"))
	assert.False(t, VerifyPassword("", "secret123"))
}
