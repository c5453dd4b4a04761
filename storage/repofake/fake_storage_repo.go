package repofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-auth-session/session"
	"github.com/jrsteele09/go-auth-session/storage"
)

var _ storage.Repo = (*FakeStorageRepo)(nil)

// FakeStorageRepo is an in-memory storage collaborator with failure
// injection for exercising the session manager's error paths.
type FakeStorageRepo struct {
	lock sync.Mutex

	Identity *session.Identity
	Token    *session.Token

	ReadIdentityErr error
	ReadTokenErr    error
	PersistErr      error
	ClearErr        error

	// expiredFunc overrides the expiry predicate. Defaults to the shared
	// wall-clock predicate. Set via SetExpiredFunc so tests can swap it
	// while the scheduler is running.
	expiredFunc func(session.Token) bool

	PersistCalls int
	ClearCalls   int
}

func NewFakeStorageRepo() *FakeStorageRepo {
	return &FakeStorageRepo{}
}

func (f *FakeStorageRepo) HasValidSession(context.Context) bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.Identity != nil || f.Token != nil
}

func (f *FakeStorageRepo) ReadIdentity(context.Context) (*session.Identity, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.ReadIdentityErr != nil {
		return nil, f.ReadIdentityErr
	}
	return f.Identity, nil
}

func (f *FakeStorageRepo) ReadToken(context.Context) (*session.Token, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.ReadTokenErr != nil {
		return nil, f.ReadTokenErr
	}
	return f.Token, nil
}

func (f *FakeStorageRepo) Persist(_ context.Context, token session.Token, user *session.Identity) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.PersistCalls++
	if f.PersistErr != nil {
		return f.PersistErr
	}
	tokenCopy := token
	f.Token = &tokenCopy
	f.Identity = user
	return nil
}

func (f *FakeStorageRepo) Clear(context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.ClearCalls++
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.Identity = nil
	f.Token = nil
	return nil
}

func (f *FakeStorageRepo) IsExpired(token session.Token) bool {
	f.lock.Lock()
	expired := f.expiredFunc
	f.lock.Unlock()
	if expired != nil {
		return expired(token)
	}
	return storage.Expired(token, storage.NowTimeFunc())
}

// SetExpiredFunc swaps the expiry predicate.
func (f *FakeStorageRepo) SetExpiredFunc(expired func(session.Token) bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.expiredFunc = expired
}

// Stored returns the currently persisted token and identity.
func (f *FakeStorageRepo) Stored() (*session.Token, *session.Identity) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.Token, f.Identity
}
