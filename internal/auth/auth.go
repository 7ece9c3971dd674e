// Package auth implements the authorization gate: every request to a
// protected route carries a bearer token issued by the external session
// provider, and the gate resolves it to an opaque user id. Tokens are
// HS256 JWTs verified against the provider's shared signing secret; the
// service itself never issues or refreshes them.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"spendline/internal/cache"
)

// ErrUnauthorized is returned when no token is present, verification
// fails, or the token carries no subject.
var ErrUnauthorized = errors.New("unauthorized")

// Verified tokens are remembered briefly so repeated requests from the
// same session skip the signature check. Entries never outlive the
// token's own expiry.
const (
	verifyCacheSize = 1024
	verifyCacheTTL  = time.Minute
)

// Verifier resolves bearer tokens to user ids.
type Verifier struct {
	secret   []byte
	verified *cache.Store[string]
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret:   []byte(secret),
		verified: cache.New[string](verifyCacheSize, verifyCacheTTL),
	}
}

// Verify checks the token signature and expiry and returns the subject
// claim as the caller's user id. Verification is read-only; there are no
// side effects on failure.
func (v *Verifier) Verify(tokenString string) (string, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return "", ErrUnauthorized
	}

	if sub, ok := v.verified.Get(tokenString); ok {
		return sub, nil
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", ErrUnauthorized
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrUnauthorized
	}

	var deadline time.Time
	if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
		deadline = exp.Time
	}
	v.verified.PutUntil(tokenString, sub, deadline)

	return sub, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrUnauthorized
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", ErrUnauthorized
	}
	return token, nil
}
