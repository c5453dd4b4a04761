package authsession

import "errors"

var (
	ErrNotAuthenticated = errors.New("no authenticated session")
	ErrManagerClosed    = errors.New("session manager closed")
)

// Fallback messages surfaced on the session when the underlying failure
// carries no message of its own.
const (
	LoginFailedMessage   = "login failed"
	RefreshFailedMessage = "token refresh failed"
)

// messageOf converts a failure into the human-readable message stored on
// the session, falling back when the error carries none.
func messageOf(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
