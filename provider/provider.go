package provider

import (
	"context"
	"errors"
	"time"

	"github.com/jrsteele09/go-auth-session/session"
)

var (
	ErrExchangeFailed = errors.New("authorization code exchange failed")
	ErrUserInfoFailed = errors.New("userinfo request failed")
	ErrRefreshFailed  = errors.New("refresh token rejected")
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// TokenResponse is the provider's answer to a code exchange or a
// refresh-grant request.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenType    string
	ExpiresIn    int64 // Access token lifetime in seconds, 0 when unspecified
}

// SessionToken converts the wire response into the session's token
// record, anchoring the relative lifetime to the current clock.
func (tr *TokenResponse) SessionToken() session.Token {
	token := session.Token{
		Access:  tr.AccessToken,
		Refresh: tr.RefreshToken,
	}
	if tr.ExpiresIn > 0 {
		token.ExpiresAt = NowTimeFunc().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return token
}

// Client is the identity-provider collaborator. Implementations perform
// the wire calls; the session manager never talks to the provider any
// other way.
type Client interface {
	// AuthCodeURL returns the provider's authorization URL for the
	// redirect flow that yields the code passed to ExchangeCode.
	AuthCodeURL(state string) string

	// ExchangeCode trades an authorization code for tokens.
	ExchangeCode(ctx context.Context, code string) (*TokenResponse, error)

	// FetchUserInfo resolves the user identity for an access token.
	FetchUserInfo(ctx context.Context, accessToken string) (*session.Identity, error)

	// Refresh trades a refresh token for a new token response.
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
}
