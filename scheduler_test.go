package authsession_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	authsession "github.com/jrsteele09/go-auth-session"
	"github.com/jrsteele09/go-auth-session/provider"
	"github.com/jrsteele09/go-auth-session/session"
)

const testTickInterval = 20 * time.Millisecond

// expireAccess marks exactly the given access token as expired, so a
// successful refresh stops triggering further refreshes.
func (f *testFixture) expireAccess(access string) {
	f.storage.SetExpiredFunc(func(token session.Token) bool {
		return token.Access == access
	})
}

func TestScheduler_RefreshesExpiredToken(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.RefreshResponse = &provider.TokenResponse{
		AccessToken:  "access-2",
		RefreshToken: "refresh-2",
		ExpiresIn:    3600,
	}
	f.provider.Users["access-2"] = &session.Identity{Subject: testSubject, Email: testEmail}

	manager := f.newManager(t, authsession.WithRefreshCheckInterval(testTickInterval))
	manager.Login(context.Background(), testCode)
	require.True(t, manager.IsAuthenticated())

	f.expireAccess(testAccessToken)

	require.Eventually(t, func() bool {
		return manager.AccessToken() == "access-2"
	}, time.Second, 5*time.Millisecond, "scheduler should refresh the expired token")

	require.True(t, manager.IsAuthenticated())

	// The replacement token is not expired, so no further refreshes occur.
	time.Sleep(5 * testTickInterval)
	require.Equal(t, 1, f.provider.Refreshes(), "exactly one refresh per expiry")
}

func TestScheduler_ForcesLogoutWhenRefreshFails(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.RefreshErr = errors.New("refresh token revoked")

	manager := f.newManager(t, authsession.WithRefreshCheckInterval(testTickInterval))
	manager.Login(context.Background(), testCode)
	require.True(t, manager.IsAuthenticated())

	f.storage.SetExpiredFunc(func(session.Token) bool { return true })

	require.Eventually(t, func() bool {
		return !manager.IsAuthenticated()
	}, time.Second, 5*time.Millisecond, "refresh failure should force a logout")

	snapshot := manager.Snapshot()
	require.Nil(t, snapshot.User)
	require.Nil(t, snapshot.Token)

	storedToken, storedIdentity := f.storage.Stored()
	require.Nil(t, storedToken)
	require.Nil(t, storedIdentity)

	// No retry storm after the forced logout.
	refreshes := f.provider.Refreshes()
	time.Sleep(5 * testTickInterval)
	require.Equal(t, refreshes, f.provider.Refreshes())
}

func TestScheduler_StopsOnLogout(t *testing.T) {
	f := setupTestFixture(t)
	manager := f.newManager(t, authsession.WithRefreshCheckInterval(testTickInterval))
	manager.Login(context.Background(), testCode)

	manager.Logout()

	// Even with the predicate reporting expiry, no refresh runs once the
	// session ended.
	f.storage.SetExpiredFunc(func(session.Token) bool { return true })
	time.Sleep(5 * testTickInterval)
	require.Zero(t, f.provider.Refreshes())
}

func TestScheduler_RestartsAfterRelogin(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.RefreshResponse = &provider.TokenResponse{
		AccessToken:  "access-2",
		RefreshToken: "refresh-2",
		ExpiresIn:    3600,
	}
	f.provider.Users["access-2"] = &session.Identity{Subject: testSubject}

	manager := f.newManager(t, authsession.WithRefreshCheckInterval(testTickInterval))
	manager.Login(context.Background(), testCode)
	manager.Logout()
	require.Zero(t, f.provider.Refreshes())

	manager.Login(context.Background(), testCode)
	f.expireAccess(testAccessToken)

	require.Eventually(t, func() bool {
		return manager.AccessToken() == "access-2"
	}, time.Second, 5*time.Millisecond, "scheduler should be live again after re-login")
}

// A hydrated session whose token already expired is refreshed by the
// scheduler's immediate first evaluation.
func TestScheduler_RefreshesExpiredTokenOnStartup(t *testing.T) {
	f := setupTestFixture(t)
	f.storage.Identity = &session.Identity{Subject: testSubject, Email: testEmail}
	f.storage.Token = &session.Token{Access: testAccessToken, Refresh: testRefreshToken}
	f.provider.RefreshResponse = &provider.TokenResponse{
		AccessToken:  "access-2",
		RefreshToken: "refresh-2",
		ExpiresIn:    3600,
	}
	f.provider.Users["access-2"] = &session.Identity{Subject: testSubject}
	f.expireAccess(testAccessToken)

	manager := f.newManager(t, authsession.WithRefreshCheckInterval(time.Hour))

	require.Eventually(t, func() bool {
		return manager.AccessToken() == "access-2"
	}, time.Second, 5*time.Millisecond, "startup evaluation should refresh immediately")
}

func TestClose_StopsSchedulerAndIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)
	manager := f.newManager(t, authsession.WithRefreshCheckInterval(testTickInterval))
	manager.Login(context.Background(), testCode)

	manager.Close()
	manager.Close()

	f.storage.SetExpiredFunc(func(session.Token) bool { return true })
	time.Sleep(5 * testTickInterval)
	require.Zero(t, f.provider.Refreshes())

	// The session itself is untouched by Close; only the timer dies.
	require.True(t, manager.IsAuthenticated())
}
