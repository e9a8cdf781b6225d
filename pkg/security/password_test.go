package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tillpoint-backend/pkg/config"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerify(t *testing.T) {
	hash, err := HashPassword("register-pass-1", testPasswordConfig())
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword("register-pass-1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong-pass", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashesAreSalted(t *testing.T) {
	cfg := testPasswordConfig()
	first, err := HashPassword("same-password", cfg)
	require.NoError(t, err)
	second, err := HashPassword("same-password", cfg)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("x", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	_, err := HashPassword("", testPasswordConfig())
	require.Error(t, err)
}
