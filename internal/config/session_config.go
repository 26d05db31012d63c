package config

import (
	"time"

	"github.com/spf13/viper"
)

type SessionConfig interface {
	GetFetchTimeout() time.Duration
	GetSignOutTimeout() time.Duration
}

type Session struct {
	v *viper.Viper
}

var _ SessionConfig = Session{}

func (s Session) GetFetchTimeout() time.Duration {
	return getDuration(s.v, "session.fetch_timeout", 15*time.Second)
}

func (s Session) GetSignOutTimeout() time.Duration {
	return getDuration(s.v, "session.sign_out_timeout", 5*time.Second)
}

func getDuration(v *viper.Viper, key string, defaultValue time.Duration) time.Duration {
	if v == nil || !v.IsSet(key) {
		return defaultValue
	}
	d := v.GetDuration(key)
	if d <= 0 {
		return defaultValue
	}
	return d
}
