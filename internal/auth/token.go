package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the client can read out of an access token.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//
// The client has no signing key, so it only decodes the payload. Nothing
// here is trusted for authorization: it is shown to the user (whoami) and
// logged, never used to skip or retry requests.
type TokenInfo struct {
	Subject   string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Inspect decodes the registered claims of a JWT without verifying its
// signature.
func Inspect(tokenStr string) (*TokenInfo, error) {
	if tokenStr == "" {
		return nil, errors.New("auth: empty token")
	}

	var c jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &c); err != nil {
		return nil, fmt.Errorf("auth: decoding token: %w", err)
	}

	info := &TokenInfo{
		Subject: c.Subject,
		Issuer:  c.Issuer,
	}
	if c.IssuedAt != nil {
		info.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		info.ExpiresAt = c.ExpiresAt.Time
	}
	return info, nil
}

// Expired reports whether the token had expired at now. Tokens without an
// exp claim never expire.
func (i *TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// ExpiresIn returns the time left before expiry, or 0 when expired or when
// the token carries no exp claim.
func (i *TokenInfo) ExpiresIn(now time.Time) time.Duration {
	if i.ExpiresAt.IsZero() || i.Expired(now) {
		return 0
	}
	return i.ExpiresAt.Sub(now)
}
