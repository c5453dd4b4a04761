package config

import "time"

type Config interface {
	EnvConfig
	ProviderConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetCallbackAddr() string
	GetEnv() string
}

type ProviderConfig interface {
	GetIssuerURL() string
	GetClientID() string
	GetClientSecret() string
	GetRedirectURL() string
	GetScopes() []string
	GetRefreshCheckInterval() time.Duration
}

type StorageConfig interface {
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetSessionNamespace() string
}

type mainConfig struct {
	EnvVars
	Provider
	Storage
}

func New() Config {
	return mainConfig{}
}
