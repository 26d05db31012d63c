package api

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/token"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// OAuth2Config builds the client's OAuth2 configuration. When an issuer is
// configured the endpoints come from OIDC discovery, otherwise from the
// configured token URL.
func OAuth2Config(ctx context.Context, cfg config.OAuthConfig) (*oauth2.Config, error) {
	endpoint := oauth2.Endpoint{
		TokenURL:  cfg.GetTokenURL(),
		AuthStyle: oauth2.AuthStyleInParams,
	}
	if issuer := cfg.GetIssuer(); issuer != "" {
		discovered, err := DiscoverEndpoint(ctx, issuer)
		if err != nil {
			return nil, err
		}
		endpoint = discovered
	}

	return &oauth2.Config{
		ClientID:     cfg.GetClientID(),
		ClientSecret: cfg.GetClientSecret(),
		Endpoint:     endpoint,
		Scopes:       cfg.GetScopes(),
	}, nil
}

// DiscoverEndpoint reads the issuer's OpenID configuration document.
func DiscoverEndpoint(ctx context.Context, issuer string) (oauth2.Endpoint, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return oauth2.Endpoint{}, errors.Wrap(err, "DiscoverEndpoint oidc.NewProvider")
	}
	return provider.Endpoint(), nil
}

// PasswordLogin exchanges user credentials for a token pair with the
// resource owner password grant and returns the credential together with the
// client identifier taken from the access token's sub claim.
func PasswordLogin(ctx context.Context, cfg *oauth2.Config, username, password string) (token.Credential, string, error) {
	t, err := cfg.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		return token.Credential{}, "", errors.Wrap(err, "PasswordLogin PasswordCredentialsToken")
	}

	credential := token.CredentialFromOAuth2(t, "")
	clientID, err := token.ParseSubject(credential.AccessToken)
	if err != nil {
		return token.Credential{}, "", errors.Wrap(err, "PasswordLogin ParseSubject")
	}
	if clientID == "" {
		return token.Credential{}, "", errors.New("PasswordLogin: access token carries no subject")
	}
	return credential, clientID, nil
}
