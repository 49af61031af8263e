package utils

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	// Config loading requires a signing secret even when only the redis
	// settings are read
	os.Setenv("JWT_SECRET", "test-secret-key-long-enough-for-hs256")
	os.Exit(m.Run())
}

func TestBlacklistToken_Revokes(t *testing.T) {
	token := "blacklist-test-token-1"

	assert.False(t, IsTokenBlacklisted(token))
	BlacklistToken(token, time.Now().Add(time.Hour))
	assert.True(t, IsTokenBlacklisted(token))
}

func TestBlacklistToken_ExpiredEntryIgnored(t *testing.T) {
	token := "blacklist-test-token-2"

	// Already-expired tokens are not worth tracking
	BlacklistToken(token, time.Now().Add(-time.Minute))
	assert.False(t, IsTokenBlacklisted(token))
}
