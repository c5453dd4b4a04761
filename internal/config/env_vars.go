package config

import (
	"os"
)

const (
	appNameVar      = "APP_NAME"
	callbackAddrVar = "CALLBACK_ADDR"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Auth Session")
}

// GetCallbackAddr returns the local listen address for the OAuth
// redirect callback (e.g. ":9000").
func (EnvVars) GetCallbackAddr() string {
	return GetEnv(callbackAddrVar, ":9000")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
