package session

import "time"

// Identity is the user profile returned by the identity provider.
// It is replaced wholesale on every login or refresh, never merged
// field by field.
type Identity struct {
	Subject string         // Provider-scoped unique user identifier (sub claim)
	Email   string         // Email address asserted by the provider
	Name    string         // Display name
	Claims  map[string]any // Remaining raw claims, kept opaque
}

// Token is the bearer credential issued by the provider. The refresh
// credential travels with it so a session can be revived without a new
// authorization flow, but only Access is ever exposed to the host.
type Token struct {
	Access    string
	Refresh   string
	ExpiresAt time.Time // Zero when the provider issued no lifetime
}

// Session is the in-memory record of the current authentication state.
// IsAuthenticated is true iff both User and Token are present.
type Session struct {
	IsAuthenticated bool
	User            *Identity
	Token           *Token
	IsLoading       bool // True only while hydration or login is in flight
	Err             string
}

// AccessToken returns the bearer credential string, or "" when logged out.
func (s Session) AccessToken() string {
	if s.Token == nil {
		return ""
	}
	return s.Token.Access
}
