package provider

import (
	"context"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-auth-session/session"
)

// Config is the static provider configuration supplied by the host
// application. It is read-only for the lifetime of the client.
type Config struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string // Defaults to openid, profile, email, offline_access
}

// OIDCClient implements Client against any OIDC-discoverable provider
// using the standard oauth2 library for the token grants.
type OIDCClient struct {
	oidcProvider *oidc.Provider
	oauthConfig  *oauth2.Config
}

var _ Client = (*OIDCClient)(nil)

// NewOIDCClient discovers the provider's endpoints from its issuer URL
// and builds the oauth2 configuration for the authorization-code flow.
func NewOIDCClient(ctx context.Context, cfg Config) (*OIDCClient, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("[NewOIDCClient] issuer URL is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("[NewOIDCClient] client ID is required")
	}

	oidcProvider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, errors.Wrap(err, "[NewOIDCClient] oidc.NewProvider")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email", oidc.ScopeOfflineAccess}
	}

	return &OIDCClient{
		oidcProvider: oidcProvider,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oidcProvider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
		},
	}, nil
}

// AuthCodeURL returns the provider's authorization endpoint URL for the
// redirect flow.
func (c *OIDCClient) AuthCodeURL(state string) string {
	return c.oauthConfig.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for tokens using the
// standard oauth2 exchange.
func (c *OIDCClient) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	oauthToken, err := c.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, ErrExchangeFailed.Error())
	}
	return responseFromOAuthToken(oauthToken), nil
}

// FetchUserInfo resolves the identity behind an access token via the
// provider's userinfo endpoint.
func (c *OIDCClient) FetchUserInfo(ctx context.Context, accessToken string) (*session.Identity, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	userInfo, err := c.oidcProvider.UserInfo(ctx, source)
	if err != nil {
		return nil, errors.Wrap(err, ErrUserInfoFailed.Error())
	}

	var claims map[string]any
	if err := userInfo.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, "[OIDCClient.FetchUserInfo] userInfo.Claims")
	}

	identity := &session.Identity{
		Subject: userInfo.Subject,
		Email:   userInfo.Email,
		Claims:  claims,
	}
	if name, ok := claims["name"].(string); ok {
		identity.Name = name
	}
	return identity, nil
}

// Refresh performs a refresh-token grant through the oauth2 token source.
func (c *OIDCClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	source := c.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	oauthToken, err := source.Token()
	if err != nil {
		return nil, errors.Wrap(err, ErrRefreshFailed.Error())
	}

	response := responseFromOAuthToken(oauthToken)
	if response.RefreshToken == "" {
		// Providers that do not rotate keep the old refresh token live.
		response.RefreshToken = refreshToken
	}
	return response, nil
}

func responseFromOAuthToken(token *oauth2.Token) *TokenResponse {
	response := &TokenResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		response.IDToken = idToken
	}
	if !token.Expiry.IsZero() {
		response.ExpiresIn = int64(time.Until(token.Expiry) / time.Second)
	}
	return response
}
