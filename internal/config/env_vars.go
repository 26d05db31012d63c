package config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	appNameKey    = "app.name"
	envKey        = "env"
	logLevelKey   = "log.level"
	logFormatKey  = "log.format"
	apiBaseURLKey = "api.base_url"
)

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return GetEnv(e.v, appNameKey, "Auth Client")
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(GetEnv(e.v, envKey, "DEV"))
}

func (e EnvVars) GetLogLevel() string {
	return GetEnv(e.v, logLevelKey, "info")
}

// GetLogFormat returns "console" or "json".
func (e EnvVars) GetLogFormat() string {
	return GetEnv(e.v, logFormatKey, "console")
}

// GetAPIBaseURL returns the base URL of the remote service (e.g., "https://api.example.com")
func (e EnvVars) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv(e.v, apiBaseURLKey, "http://localhost:8080"), "/")
}

// GetEnv returns the value configured for key, from the config file or its
// AUTH_CLIENT_ prefixed environment variable, or defaultValue when unset.
func GetEnv(v *viper.Viper, key, defaultValue string) string {
	if v == nil {
		return defaultValue
	}
	value := v.GetString(key)
	if value == "" {
		return defaultValue
	}
	return value
}
