package providerfake

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-auth-session/provider"
	"github.com/jrsteele09/go-auth-session/session"
)

var _ provider.Client = (*FakeProvider)(nil)

// FakeProvider is a scriptable in-memory identity provider for tests.
// Codes maps authorization codes to token responses, Users maps access
// tokens to identities.
type FakeProvider struct {
	lock sync.Mutex

	Codes map[string]*provider.TokenResponse
	Users map[string]*session.Identity

	RefreshResponse *provider.TokenResponse
	RefreshErr      error
	UserInfoErr     error

	// ExchangeHook and RefreshHook run at the start of the matching wire
	// call, letting a test interleave actions mid-flight.
	ExchangeHook func()
	RefreshHook  func()

	ExchangeCalls int
	UserInfoCalls int
	RefreshCalls  int
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		Codes: make(map[string]*provider.TokenResponse),
		Users: make(map[string]*session.Identity),
	}
}

func (f *FakeProvider) AuthCodeURL(state string) string {
	return "https://provider.example.com/authorize?state=" + state
}

func (f *FakeProvider) ExchangeCode(_ context.Context, code string) (*provider.TokenResponse, error) {
	if f.ExchangeHook != nil {
		f.ExchangeHook()
	}
	f.lock.Lock()
	defer f.lock.Unlock()

	f.ExchangeCalls++
	response, ok := f.Codes[code]
	if !ok {
		return nil, errors.New("invalid authorization code")
	}
	return response, nil
}

func (f *FakeProvider) FetchUserInfo(_ context.Context, accessToken string) (*session.Identity, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.UserInfoCalls++
	if f.UserInfoErr != nil {
		return nil, f.UserInfoErr
	}
	identity, ok := f.Users[accessToken]
	if !ok {
		return nil, errors.New("token rejected")
	}
	return identity, nil
}

func (f *FakeProvider) Refresh(_ context.Context, refreshToken string) (*provider.TokenResponse, error) {
	if f.RefreshHook != nil {
		f.RefreshHook()
	}
	f.lock.Lock()
	defer f.lock.Unlock()

	f.RefreshCalls++
	if f.RefreshErr != nil {
		return nil, f.RefreshErr
	}
	if f.RefreshResponse != nil {
		return f.RefreshResponse, nil
	}
	return nil, errors.New("refresh token invalid: " + refreshToken)
}

// Refreshes reports how many refresh-grant calls have been made.
func (f *FakeProvider) Refreshes() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.RefreshCalls
}
