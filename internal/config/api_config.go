package config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	apiAuthModeKey           = "api.auth_mode"
	documentsBaseURLKey      = "api.documents_base_url"
	documentsAuthModeKey     = "api.documents_auth_mode"
	defaultAuthMode          = "bearer"
	defaultDocumentsAuthMode = "url_token"
)

type APIConfig interface {
	GetAuthMode() string
	GetDocumentsBaseURL() string
	GetDocumentsAuthMode() string
}

type API struct {
	v *viper.Viper
}

var _ APIConfig = API{}

// GetAuthMode returns how the data API authenticates: bearer, cookie,
// url_token or none.
func (a API) GetAuthMode() string {
	return strings.ToLower(GetEnv(a.v, apiAuthModeKey, defaultAuthMode))
}

// GetDocumentsBaseURL returns the base URL of the documents service, which
// defaults to the data API.
func (a API) GetDocumentsBaseURL() string {
	return strings.TrimRight(GetEnv(a.v, documentsBaseURLKey, EnvVars{v: a.v}.GetAPIBaseURL()), "/")
}

func (a API) GetDocumentsAuthMode() string {
	return strings.ToLower(GetEnv(a.v, documentsAuthModeKey, defaultDocumentsAuthMode))
}
