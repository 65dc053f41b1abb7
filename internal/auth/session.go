package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTTL is how long an issued session stays valid.
const SessionTTL = 30 * 24 * time.Hour

// Sessions issues and resolves signed session tokens. A session embeds only
// the user id, never any password material.
type Sessions struct {
	secret []byte
	ttl    time.Duration
}

// NewSessions returns a session issuer signing with the given secret.
func NewSessions(secret string) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: SessionTTL}
}

// Issue mints a signed token for the given user id.
func (s *Sessions) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Resolve validates a token and returns the embedded user id. Any failure
// (malformed, bad signature, expired) yields ok=false; callers treat that as
// "no identity", never as an error to propagate.
func (s *Sessions) Resolve(token string) (string, bool) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", false
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
