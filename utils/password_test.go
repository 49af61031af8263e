package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashPassword_SaltedOutput(t *testing.T) {
	h1, err := HashPassword("secret1")
	assert.NoError(t, err)
	h2, err := HashPassword("secret1")
	assert.NoError(t, err)

	// Embedded random salt must make repeated hashes differ
	assert.NotEqual(t, h1, h2)
	assert.True(t, CheckPassword(h1, "secret1"))
	assert.True(t, CheckPassword(h2, "secret1"))
}

func TestCheckPassword_WrongPassword(t *testing.T) {
	h, err := HashPassword("secret1")
	assert.NoError(t, err)
	assert.False(t, CheckPassword(h, "secret2"))
	assert.False(t, CheckPassword(h, ""))
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	assert.False(t, CheckPassword("", "secret1"))
	assert.False(t, CheckPassword("not-a-bcrypt-hash", "secret1"))
	assert.False(t, CheckPassword("$2a$10$tooshort", "secret1"))
}
