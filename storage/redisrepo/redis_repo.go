package redisrepo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/jrsteele09/go-auth-session/session"
	"github.com/jrsteele09/go-auth-session/storage"
)

// DefaultSessionTTL bounds how long a persisted session survives without
// a successful refresh. It tracks the typical refresh-token horizon.
const DefaultSessionTTL = 7 * 24 * time.Hour

// storedSession is the single JSON document persisted per namespace.
// Token and identity live in one document so they can only ever be
// written or removed together.
type storedSession struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	ExpiresAt    time.Time         `json:"expires_at"`
	User         *session.Identity `json:"user,omitempty"`
}

// Repo is a Redis-backed implementation of storage.Repo. Sessions are
// stored as one JSON document under a namespaced key with a TTL at the
// refresh-token horizon.
type Repo struct {
	client     redis.Cmdable
	key        string
	sessionTTL time.Duration
}

var _ storage.Repo = (*Repo)(nil)

// RepoOption modifies a Repo during construction.
type RepoOption func(*Repo)

// WithSessionTTL overrides the persistence horizon.
func WithSessionTTL(ttl time.Duration) RepoOption {
	return func(r *Repo) {
		r.sessionTTL = ttl
	}
}

// NewRepo creates a Redis session repository. namespace isolates this
// application's session from other users of the same Redis database.
func NewRepo(client redis.Cmdable, namespace string, options ...RepoOption) (*Repo, error) {
	if client == nil {
		return nil, errors.New("[redisrepo.NewRepo] redis client is required")
	}
	if namespace == "" {
		return nil, errors.New("[redisrepo.NewRepo] namespace is required")
	}

	repo := &Repo{
		client:     client,
		key:        "authsession:" + namespace,
		sessionTTL: DefaultSessionTTL,
	}
	for _, opt := range options {
		opt(repo)
	}
	return repo, nil
}

// HasValidSession reports whether a complete session document is
// persisted. The key's TTL retires sessions past the refresh horizon, so
// existence plus completeness is the whole check. Never returns an
// error: any storage trouble reads as "no session".
func (r *Repo) HasValidSession(ctx context.Context) bool {
	doc, err := r.read(ctx)
	if err != nil || doc == nil {
		return false
	}
	return doc.AccessToken != "" && doc.User != nil
}

// ReadIdentity returns the persisted identity, or nil when absent.
func (r *Repo) ReadIdentity(ctx context.Context) (*session.Identity, error) {
	doc, err := r.read(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[redisrepo.ReadIdentity] read")
	}
	if doc == nil {
		return nil, nil
	}
	return doc.User, nil
}

// ReadToken returns the persisted token, or nil when absent.
func (r *Repo) ReadToken(ctx context.Context) (*session.Token, error) {
	doc, err := r.read(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[redisrepo.ReadToken] read")
	}
	if doc == nil || doc.AccessToken == "" {
		return nil, nil
	}
	return &session.Token{
		Access:    doc.AccessToken,
		Refresh:   doc.RefreshToken,
		ExpiresAt: doc.ExpiresAt,
	}, nil
}

// Persist overwrites the stored session with the given token and
// identity in a single SET.
func (r *Repo) Persist(ctx context.Context, token session.Token, user *session.Identity) error {
	payload, err := json.Marshal(storedSession{
		AccessToken:  token.Access,
		RefreshToken: token.Refresh,
		ExpiresAt:    token.ExpiresAt,
		User:         user,
	})
	if err != nil {
		return errors.Wrap(err, "[redisrepo.Persist] json.Marshal")
	}
	if err := r.client.Set(ctx, r.key, payload, r.sessionTTL).Err(); err != nil {
		return errors.Wrap(err, "[redisrepo.Persist] redis SET")
	}
	return nil
}

// Clear deletes the stored session. Deleting a missing key is fine.
func (r *Repo) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return errors.Wrap(err, "[redisrepo.Clear] redis DEL")
	}
	return nil
}

// IsExpired applies the shared expiry predicate.
func (r *Repo) IsExpired(token session.Token) bool {
	return storage.Expired(token, storage.NowTimeFunc())
}

func (r *Repo) read(ctx context.Context) (*storedSession, error) {
	payload, err := r.client.Get(ctx, r.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc storedSession
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, errors.Wrap(err, "corrupt session document")
	}
	return &doc, nil
}
