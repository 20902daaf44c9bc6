package security_test

import (
	"testing"

	"github.com/geocoder89/fintrack/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordNeverStoresPlaintext(t *testing.T) {
	hash, err := security.HashPassword("secret123")
	require.NoError(t, err)

	assert.NotEqual(t, "secret123", hash)
	assert.NoError(t, security.CheckPassword(hash, "secret123"))
}

func TestCheckPasswordRejectsWrongPassword(t *testing.T) {
	hash, err := security.HashPassword("secret123")
	require.NoError(t, err)

	assert.Error(t, security.CheckPassword(hash, "secret124"))
}

func TestHashesAreSalted(t *testing.T) {
	a, err := security.HashPassword("secret123")
	require.NoError(t, err)

	b, err := security.HashPassword("secret123")
	require.NoError(t, err)

	// bcrypt embeds a random salt, so two hashes of the same input differ
	assert.NotEqual(t, a, b)
}
