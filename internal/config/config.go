package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "AUTH_CLIENT"

type Config interface {
	EnvConfig
	APIConfig
	OAuthConfig
	StorageConfig
	SessionConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetLogFormat() string
	GetAPIBaseURL() string
}

type mainConfig struct {
	EnvVars
	API
	OAuth
	Storage
	Session
}

// New loads configuration from the optional YAML file and AUTH_CLIENT_* environment
// variables. A missing config file is not an error.
func New(configFile string) (Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("auth-client")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("[config.New] failed to read config file: %w", err)
		}
	}

	return mainConfig{
		EnvVars: EnvVars{v: v},
		API:     API{v: v},
		OAuth:   OAuth{v: v},
		Storage: Storage{v: v},
		Session: Session{v: v},
	}, nil
}
