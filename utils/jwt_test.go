package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-long-enough-for-hs256"

func TestTokenService_IssueVerifyRoundtrip(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	token, err := svc.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, ok := svc.Verify(token)
	assert.True(t, ok)
	assert.Equal(t, uint(42), userID)
}

func TestTokenService_Expired(t *testing.T) {
	svc := NewTokenService(testSecret, -time.Minute)

	token, err := svc.Issue(42)
	require.NoError(t, err)

	_, ok := svc.Verify(token)
	assert.False(t, ok)
}

func TestTokenService_WrongSecret(t *testing.T) {
	issuer := NewTokenService(testSecret, time.Hour)
	verifier := NewTokenService("another-secret-entirely", time.Hour)

	token, err := issuer.Issue(42)
	require.NoError(t, err)

	_, ok := verifier.Verify(token)
	assert.False(t, ok)
}

func TestTokenService_Malformed(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	for _, bad := range []string{"", "garbage", "a.b.c", "header.payload"} {
		_, ok := svc.Verify(bad)
		assert.False(t, ok, "token %q should be invalid", bad)
	}
}

func TestTokenService_Tampered(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	token, err := svc.Issue(42)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, ok := svc.Verify(tampered)
	assert.False(t, ok)
}

func TestTokenService_MissingUserIDClaim(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	// Signed with the right secret but without a user_id claim
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, ok := svc.Verify(token)
	assert.False(t, ok)
}

func TestTokenService_RejectsNonHMACSigning(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	// alg=none style token must never verify
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 42}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, ok := svc.Verify(token)
	assert.False(t, ok)
}

func TestTokenService_ExpiresAt(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	token, err := svc.Issue(42)
	require.NoError(t, err)

	exp := svc.ExpiresAt(token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	// Malformed tokens fall back to now + ttl
	fallback := svc.ExpiresAt("garbage")
	assert.WithinDuration(t, time.Now().Add(time.Hour), fallback, time.Minute)
}
