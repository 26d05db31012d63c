package config

import (
	"strings"

	"github.com/spf13/viper"
)

type OAuthConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetIssuer() string
	GetTokenURL() string
	GetScopes() []string
	GetSignOutPath() string
}

type OAuth struct {
	v *viper.Viper
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetClientID() string {
	return GetEnv(o.v, "oauth.client_id", "auth-client")
}

func (o OAuth) GetClientSecret() string {
	return GetEnv(o.v, "oauth.client_secret", "")
}

// GetIssuer returns the OIDC issuer. When set, endpoints are discovered and
// the token URL is ignored.
func (o OAuth) GetIssuer() string {
	return GetEnv(o.v, "oauth.issuer", "")
}

func (o OAuth) GetTokenURL() string {
	return GetEnv(o.v, "oauth.token_url", "http://localhost:8080/oauth2/token")
}

func (o OAuth) GetScopes() []string {
	return strings.Fields(GetEnv(o.v, "oauth.scopes", "openid profile offline_access"))
}

func (o OAuth) GetSignOutPath() string {
	return GetEnv(o.v, "oauth.sign_out_path", "/auth/logout")
}
