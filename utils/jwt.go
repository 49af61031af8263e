package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims defines JWT claims used in the application.
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed bearer tokens. The signing secret and
// token lifetime are injected at construction so tests can supply their own.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and token lifetime.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Issue signs a JWT bound to the given user ID, expiring after the configured TTL.
func (s *TokenService) Issue(userID uint) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify validates a token and resolves the bound user ID. It reports false for
// malformed tokens, bad signatures, expired tokens and tokens without a user ID,
// so callers only ever see a single invalid sentinel.
func (s *TokenService) Verify(tokenStr string) (uint, bool) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, false
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == 0 {
		return 0, false
	}

	return claims.UserID, true
}

// ExpiresAt reports the expiry of a token without validating its signature.
// Used to bound blacklist retention on logout.
func (s *TokenService) ExpiresAt(tokenStr string) time.Time {
	fallback := time.Now().Add(s.ttl)
	parser := jwt.NewParser()
	var claims Claims
	if _, _, err := parser.ParseUnverified(tokenStr, &claims); err != nil {
		return fallback
	}
	if claims.ExpiresAt == nil {
		return fallback
	}
	return claims.ExpiresAt.Time
}
