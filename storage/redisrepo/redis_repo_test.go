package redisrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-session/session"
	"github.com/jrsteele09/go-auth-session/storage/redisrepo"
)

const testNamespace = "test-app"

func setupRepo(t *testing.T) (*redisrepo.Repo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo, err := redisrepo.NewRepo(client, testNamespace)
	require.NoError(t, err)
	return repo, mr
}

func testIdentity() *session.Identity {
	return &session.Identity{Subject: "user-1", Email: "john.doe@example.com", Name: "John Doe"}
}

func testToken() session.Token {
	return session.Token{
		Access:    "access-1",
		Refresh:   "refresh-1",
		ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
}

func TestNewRepo_Validation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	_, err := redisrepo.NewRepo(nil, testNamespace)
	require.Error(t, err)

	_, err = redisrepo.NewRepo(client, "")
	require.Error(t, err)
}

func TestPersistAndRead(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Persist(ctx, testToken(), testIdentity()))

	require.True(t, repo.HasValidSession(ctx))

	identity, err := repo.ReadIdentity(ctx)
	require.NoError(t, err)
	require.Equal(t, testIdentity(), identity)

	token, err := repo.ReadToken(ctx)
	require.NoError(t, err)
	require.Equal(t, testToken().Access, token.Access)
	require.Equal(t, testToken().Refresh, token.Refresh)
	require.True(t, testToken().ExpiresAt.Equal(token.ExpiresAt))
}

func TestRead_EmptyStore(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.False(t, repo.HasValidSession(ctx))

	identity, err := repo.ReadIdentity(ctx)
	require.NoError(t, err)
	require.Nil(t, identity)

	token, err := repo.ReadToken(ctx)
	require.NoError(t, err)
	require.Nil(t, token)
}

func TestPersist_OverwritesPriorSession(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Persist(ctx, testToken(), testIdentity()))

	newToken := session.Token{Access: "access-2", Refresh: "refresh-2"}
	newIdentity := &session.Identity{Subject: "user-1", Email: "renamed@example.com"}
	require.NoError(t, repo.Persist(ctx, newToken, newIdentity))

	token, err := repo.ReadToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "access-2", token.Access)

	identity, err := repo.ReadIdentity(ctx)
	require.NoError(t, err)
	require.Equal(t, "renamed@example.com", identity.Email)
}

func TestClear_Idempotent(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Persist(ctx, testToken(), testIdentity()))
	require.NoError(t, repo.Clear(ctx))
	require.False(t, repo.HasValidSession(ctx))

	// Clearing again is not an error.
	require.NoError(t, repo.Clear(ctx))
}

func TestPersist_SetsSessionTTL(t *testing.T) {
	repo, mr := setupRepo(t)

	require.NoError(t, repo.Persist(context.Background(), testToken(), testIdentity()))

	ttl := mr.TTL("authsession:" + testNamespace)
	require.Greater(t, ttl, time.Duration(0))
	require.LessOrEqual(t, ttl, redisrepo.DefaultSessionTTL)
}

func TestSessionExpiresWithTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo, err := redisrepo.NewRepo(client, testNamespace, redisrepo.WithSessionTTL(time.Minute))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, repo.Persist(ctx, testToken(), testIdentity()))
	require.True(t, repo.HasValidSession(ctx))

	mr.FastForward(2 * time.Minute)

	require.False(t, repo.HasValidSession(ctx))
}

func TestCorruptDocument(t *testing.T) {
	repo, mr := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("authsession:"+testNamespace, "{not json"))

	require.False(t, repo.HasValidSession(ctx))

	_, err := repo.ReadIdentity(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "corrupt")

	_, err = repo.ReadToken(ctx)
	require.Error(t, err)
}

func TestHasValidSession_IncompleteDocument(t *testing.T) {
	repo, mr := setupRepo(t)

	// Token without an identity is not a valid session.
	require.NoError(t, mr.Set("authsession:"+testNamespace, `{"access_token":"access-1"}`))

	require.False(t, repo.HasValidSession(context.Background()))
}

func TestIsExpired(t *testing.T) {
	repo, _ := setupRepo(t)

	require.False(t, repo.IsExpired(session.Token{Access: "a", ExpiresAt: time.Now().Add(time.Hour)}))
	require.True(t, repo.IsExpired(session.Token{Access: "a", ExpiresAt: time.Now().Add(-time.Hour)}))
}
