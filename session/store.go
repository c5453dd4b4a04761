package session

import (
	"context"
	"sync"
)

// RestoreFailedMessage is surfaced on the session when hydration finds
// persisted state it cannot adopt.
const RestoreFailedMessage = "failed to restore session"

// Observer receives the resolved user identity after every mutation that
// changes it, or nil when the session ends. Fire-and-forget: the store
// ignores anything the observer does.
type Observer func(*Identity)

// StorageReader is the slice of the durable-storage contract the store
// needs for its one-shot hydration.
type StorageReader interface {
	// HasValidSession is a non-throwing best-effort check for a
	// persisted, still-usable session.
	HasValidSession(ctx context.Context) bool

	// ReadIdentity returns the persisted identity, or nil when absent.
	ReadIdentity(ctx context.Context) (*Identity, error)

	// ReadToken returns the persisted token, or nil when absent.
	ReadToken(ctx context.Context) (*Token, error)
}

// Store holds the canonical session snapshot. All mutations go through a
// single entry point per field group, and every mutation that changes the
// user identity forwards it to the observer.
type Store struct {
	mu       sync.RWMutex
	current  Session
	observer Observer
}

// NewStore creates an empty, unauthenticated store. observer may be nil.
func NewStore(observer Observer) *Store {
	return &Store{observer: observer}
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Hydrate performs the one-shot startup read of previously persisted
// state. Either both identity and token are adopted atomically or
// neither is: partial or corrupt storage degrades to the empty
// unauthenticated state with a generic error message. Hydration is never
// fatal to the caller.
func (s *Store) Hydrate(ctx context.Context, storage StorageReader) {
	s.SetLoading(true)
	defer s.SetLoading(false)

	if !storage.HasValidSession(ctx) {
		return
	}

	user, err := storage.ReadIdentity(ctx)
	if err != nil {
		s.SetError(RestoreFailedMessage)
		return
	}
	token, err := storage.ReadToken(ctx)
	if err != nil {
		s.SetError(RestoreFailedMessage)
		return
	}
	if user == nil || token == nil || token.Access == "" {
		// Half a session in storage must not become half a session in memory.
		s.SetError(RestoreFailedMessage)
		return
	}

	s.SetAuthenticated(user, token)
}

// SetAuthenticated atomically adopts a new identity and token and marks
// the session authenticated. The observer is notified with the new
// identity.
func (s *Store) SetAuthenticated(user *Identity, token *Token) {
	s.mu.Lock()
	s.current.User = user
	s.current.Token = token
	s.current.IsAuthenticated = true
	s.current.Err = ""
	s.mu.Unlock()

	s.notify(user)
}

// SetLoading toggles the transient in-flight flag.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.IsLoading = loading
}

// SetError records a failure message. The message is sticky until
// cleared or superseded by a new action.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Err = msg
}

// ClearError resets the error field and nothing else.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Err = ""
}

// Reset returns the store to the empty unauthenticated state and
// notifies the observer of the identity's absence. Resetting an already
// empty store is a no-op in effect.
func (s *Store) Reset() {
	s.mu.Lock()
	hadUser := s.current.User != nil
	s.current = Session{}
	s.mu.Unlock()

	if hadUser {
		s.notify(nil)
	}
}

func (s *Store) notify(user *Identity) {
	if s.observer != nil {
		s.observer(user)
	}
}
