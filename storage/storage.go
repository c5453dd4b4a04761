package storage

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jrsteele09/go-auth-session/session"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// expirySkew is subtracted from the stored expiry so a token is treated
// as expired slightly before the provider would reject it.
const expirySkew = 30 * time.Second

// Repo is the durable-storage collaborator. Persist overwrites the
// previously stored session atomically from the caller's perspective,
// and Clear is idempotent.
type Repo interface {
	session.StorageReader

	// Persist stores the token and identity together, replacing any
	// prior session.
	Persist(ctx context.Context, token session.Token, user *session.Identity) error

	// Clear removes the stored session. Clearing an empty store is not
	// an error.
	Clear(ctx context.Context) error

	// IsExpired is the authoritative expiry predicate for a token.
	IsExpired(token session.Token) bool
}

// Expired reports whether a token should no longer be used at the given
// instant. When the stored expiry is absent the JWT exp claim is
// consulted; a token whose lifetime cannot be determined is treated as
// expired so it gets refreshed rather than sent to the provider stale.
func Expired(token session.Token, now time.Time) bool {
	expiresAt := token.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = jwtExpiry(token.Access)
	}
	if expiresAt.IsZero() {
		return true
	}
	return now.After(expiresAt.Add(-expirySkew))
}

// jwtExpiry extracts the exp claim from a JWT-shaped access token
// without verifying its signature. Expiry is a liveness hint here, not
// an authorization decision.
func jwtExpiry(accessToken string) time.Time {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	expiresAt, err := claims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return time.Time{}
	}
	return expiresAt.Time
}
