package storage_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-session/session"
	"github.com/jrsteele09/go-auth-session/storage"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestExpired_StoredExpiry(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		expired   bool
	}{
		{"well in the future", testNow.Add(time.Hour), false},
		{"already past", testNow.Add(-time.Minute), true},
		{"inside the skew window", testNow.Add(10 * time.Second), true},
		{"just outside the skew window", testNow.Add(45 * time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := session.Token{Access: "opaque-token", ExpiresAt: tt.expiresAt}
			require.Equal(t, tt.expired, storage.Expired(token, testNow))
		})
	}
}

func TestExpired_FallsBackToJWTExpClaim(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	token := session.Token{Access: signed}
	require.False(t, storage.Expired(token, testNow))
	require.True(t, storage.Expired(token, testNow.Add(2*time.Hour)))
}

func TestExpired_UndeterminableLifetimeIsExpired(t *testing.T) {
	// Opaque token without a stored expiry: refresh rather than send a
	// possibly stale credential.
	require.True(t, storage.Expired(session.Token{Access: "not-a-jwt"}, testNow))

	// JWT without an exp claim.
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user-1",
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	require.True(t, storage.Expired(session.Token{Access: signed}, testNow))
}
