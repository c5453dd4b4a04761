package config

import (
	"strings"
	"time"
)

const defaultRefreshCheckInterval = 5 * time.Minute

type Provider struct{}

var _ ProviderConfig = Provider{}

func (Provider) GetIssuerURL() string {
	return GetEnv("OIDC_ISSUER_URL", "")
}

func (Provider) GetClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}

func (Provider) GetClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

func (Provider) GetRedirectURL() string {
	return GetEnv("OIDC_REDIRECT_URL", "http://localhost:9000/callback")
}

// GetScopes reads a comma-separated scope list; empty means the
// provider client's defaults.
func (Provider) GetScopes() []string {
	raw := GetEnv("OIDC_SCOPES", "")
	if raw == "" {
		return nil
	}
	var scopes []string
	for _, scope := range strings.Split(raw, ",") {
		if scope = strings.TrimSpace(scope); scope != "" {
			scopes = append(scopes, scope)
		}
	}
	return scopes
}

func (Provider) GetRefreshCheckInterval() time.Duration {
	raw := GetEnv("REFRESH_CHECK_INTERVAL", "")
	if raw == "" {
		return defaultRefreshCheckInterval
	}
	interval, err := time.ParseDuration(raw)
	if err != nil || interval <= 0 {
		return defaultRefreshCheckInterval
	}
	return interval
}
