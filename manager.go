// Package authsession manages a client-side authentication session for
// an OIDC identity provider: it exchanges an authorization code for
// tokens, persists the session, exposes the current snapshot to the
// host application, and keeps the session alive by refreshing the
// access token before it expires.
package authsession

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-auth-session/internal/utils"
	"github.com/jrsteele09/go-auth-session/provider"
	"github.com/jrsteele09/go-auth-session/session"
	"github.com/jrsteele09/go-auth-session/storage"
)

// DefaultRefreshCheckInterval is how often the scheduler re-evaluates
// token expiry while a session is authenticated.
const DefaultRefreshCheckInterval = 5 * time.Minute

// refreshCallTimeout bounds the provider round trip of a scheduled
// refresh.
const refreshCallTimeout = 30 * time.Second

// Manager is the session manager exposed to the host application. It
// composes the session store, the refresh scheduler, and the four auth
// actions over the provider and storage collaborators.
type Manager struct {
	providerClient provider.Client
	storageRepo    storage.Repo
	store          *session.Store
	log            zerolog.Logger

	refreshCheckInterval time.Duration

	// generation tags every async attempt; results from a superseded
	// generation are discarded so a stale callback cannot resurrect a
	// session after logout.
	generation atomic.Uint64

	// refreshMu serializes refresh attempts so a manual refresh and a
	// scheduled refresh never race each other.
	refreshMu sync.Mutex

	schedMu   sync.Mutex
	schedStop chan struct{}
	closed    bool
}

// Option modifies a Manager during construction.
type Option func(*Manager)

// WithLogger attaches a structured logger. The default discards all
// output.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithRefreshCheckInterval overrides the scheduler period (primarily
// for testing).
func WithRefreshCheckInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.refreshCheckInterval = interval
		}
	}
}

// New constructs a Manager, hydrates the session from durable storage,
// and starts the refresh scheduler when a persisted session was
// adopted. Hydration problems degrade to an empty session and are never
// fatal. observer may be nil.
func New(ctx context.Context, providerClient provider.Client, storageRepo storage.Repo, observer session.Observer, options ...Option) (*Manager, error) {
	if providerClient == nil {
		return nil, errors.New("[authsession.New] provider client is required")
	}
	if storageRepo == nil {
		return nil, errors.New("[authsession.New] storage repo is required")
	}

	m := &Manager{
		providerClient:       providerClient,
		storageRepo:          storageRepo,
		store:                session.NewStore(observer),
		log:                  zerolog.Nop(),
		refreshCheckInterval: DefaultRefreshCheckInterval,
	}
	for _, opt := range options {
		opt(m)
	}

	m.store.Hydrate(ctx, storageRepo)
	if snapshot := m.store.Snapshot(); snapshot.IsAuthenticated {
		m.log.Info().Str("subject", utils.Value(snapshot.User).Subject).Msg("session restored from storage")
		m.startScheduler()
	}

	return m, nil
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() session.Session {
	return m.store.Snapshot()
}

// IsAuthenticated reports whether a session is currently established.
func (m *Manager) IsAuthenticated() bool {
	return m.store.Snapshot().IsAuthenticated
}

// User returns the authenticated identity, or nil.
func (m *Manager) User() *session.Identity {
	return m.store.Snapshot().User
}

// AccessToken returns the current bearer credential, or "".
func (m *Manager) AccessToken() string {
	return m.store.Snapshot().AccessToken()
}

// IsLoading reports whether hydration or a login is in flight.
func (m *Manager) IsLoading() bool {
	return m.store.Snapshot().IsLoading
}

// Err returns the sticky failure message, or "".
func (m *Manager) Err() string {
	return m.store.Snapshot().Err
}

// AuthCodeURL returns the provider's authorization URL so the host can
// start the redirect flow that produces the code for Login.
func (m *Manager) AuthCodeURL(state string) string {
	return m.providerClient.AuthCodeURL(state)
}

// Login exchanges an authorization code for tokens, resolves the user
// identity, persists both, and adopts them atomically. Failures do not
// disturb the prior session state; callers observe them only through
// the session's error field. Loading is cleared on every outcome.
func (m *Manager) Login(ctx context.Context, code string) {
	gen := m.generation.Add(1)
	attemptID := uuid.New().String()
	log := m.log.With().Str("attempt_id", attemptID).Logger()

	m.store.SetLoading(true)
	m.store.ClearError()
	defer m.store.SetLoading(false)

	tokenResponse, err := m.providerClient.ExchangeCode(ctx, code)
	if err != nil {
		m.failAttempt(gen, log, err, LoginFailedMessage, "code exchange failed")
		return
	}

	identity, err := m.providerClient.FetchUserInfo(ctx, tokenResponse.AccessToken)
	if err != nil {
		m.failAttempt(gen, log, err, LoginFailedMessage, "userinfo resolution failed")
		return
	}

	if !m.currentGeneration(gen) {
		log.Debug().Msg("discarding stale login result")
		return
	}

	token := tokenResponse.SessionToken()
	if err := m.storageRepo.Persist(ctx, token, identity); err != nil {
		m.failAttempt(gen, log, err, LoginFailedMessage, "session persistence failed")
		return
	}

	if !m.currentGeneration(gen) {
		log.Debug().Msg("discarding stale login result")
		return
	}

	m.store.SetAuthenticated(identity, &token)
	log.Info().Str("subject", identity.Subject).Msg("login succeeded")
	m.startScheduler()
}

// Logout unconditionally ends the session: durable storage is cleared,
// the store is reset, and the observer is told the identity is gone. No
// network calls are made. Logging out twice is a no-op in effect.
func (m *Manager) Logout() {
	m.generation.Add(1)
	m.stopScheduler()

	if err := m.storageRepo.Clear(context.Background()); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear stored session")
	}
	m.store.Reset()
	m.log.Info().Msg("logged out")
}

// RefreshToken exchanges the session's refresh credential for a new
// token, re-resolves the identity, persists both, and replaces the
// session's identity and token in place. Unlike Login it neither
// toggles loading nor swallows failure: the error is surfaced on the
// session and returned, because the scheduler escalates refresh failure
// to a forced logout.
func (m *Manager) RefreshToken(ctx context.Context) error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	gen := m.generation.Load()
	snapshot := m.store.Snapshot()
	if !snapshot.IsAuthenticated || snapshot.Token == nil {
		return errors.Wrap(ErrNotAuthenticated, "[Manager.RefreshToken]")
	}

	tokenResponse, err := m.providerClient.Refresh(ctx, snapshot.Token.Refresh)
	if err != nil {
		m.failAttempt(gen, m.log, err, RefreshFailedMessage, "refresh grant failed")
		return errors.Wrap(err, "[Manager.RefreshToken] provider refresh")
	}

	identity, err := m.providerClient.FetchUserInfo(ctx, tokenResponse.AccessToken)
	if err != nil {
		m.failAttempt(gen, m.log, err, RefreshFailedMessage, "userinfo resolution failed")
		return errors.Wrap(err, "[Manager.RefreshToken] provider userinfo")
	}

	if !m.currentGeneration(gen) {
		m.log.Debug().Msg("discarding stale refresh result")
		return nil
	}

	token := tokenResponse.SessionToken()
	if err := m.storageRepo.Persist(ctx, token, identity); err != nil {
		m.failAttempt(gen, m.log, err, RefreshFailedMessage, "session persistence failed")
		return errors.Wrap(err, "[Manager.RefreshToken] storage persist")
	}

	if !m.currentGeneration(gen) {
		m.log.Debug().Msg("discarding stale refresh result")
		return nil
	}

	m.store.SetAuthenticated(identity, &token)
	m.log.Debug().Time("expires_at", token.ExpiresAt).Msg("access token refreshed")
	return nil
}

// ClearError resets the session's error field and nothing else.
func (m *Manager) ClearError() {
	m.store.ClearError()
}

// Close tears the manager down, cancelling the refresh scheduler. Safe
// to call more than once.
func (m *Manager) Close() {
	m.schedMu.Lock()
	m.closed = true
	m.schedMu.Unlock()
	m.stopScheduler()
}

// failAttempt records a failure message on the session unless the
// attempt has been superseded, in which case a stale failure must not
// clobber whatever state came after it.
func (m *Manager) failAttempt(gen uint64, log zerolog.Logger, err error, fallback, event string) {
	log.Warn().Err(err).Msg(event)
	if !m.currentGeneration(gen) {
		return
	}
	m.store.SetError(messageOf(err, fallback))
}

func (m *Manager) currentGeneration(gen uint64) bool {
	return m.generation.Load() == gen
}
