package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	clienterrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"golang.org/x/oauth2"
)

// Refresher exchanges a refresh token for a new credential.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (Credential, error)
}

var _ Refresher = (*OAuth2Refresher)(nil)

// OAuth2Refresher runs the refresh_token grant against an OAuth2 token endpoint.
type OAuth2Refresher struct {
	config *oauth2.Config
}

func NewOAuth2Refresher(config *oauth2.Config) *OAuth2Refresher {
	return &OAuth2Refresher{config: config}
}

// Refresh returns ErrRefreshRejected wrapped around the server's error when
// the token endpoint refuses the refresh token. Any other error is transient.
func (r *OAuth2Refresher) Refresh(ctx context.Context, refreshToken string) (Credential, error) {
	if refreshToken == "" {
		return Credential{}, clienterrors.ErrInvalidRefreshToken
	}

	expired := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Unix(1, 0),
	}
	t, err := r.config.TokenSource(ctx, expired).Token()
	if err != nil {
		if isRejection(err) {
			return Credential{}, fmt.Errorf("%w: %w", clienterrors.ErrRefreshRejected, err)
		}
		return Credential{}, fmt.Errorf("OAuth2Refresher.Refresh: %w", err)
	}
	return CredentialFromOAuth2(t, refreshToken), nil
}

func isRejection(err error) bool {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return false
	}
	if re.ErrorCode == "invalid_grant" || re.ErrorCode == "invalid_client" || re.ErrorCode == "unauthorized_client" {
		return true
	}
	if re.Response == nil {
		return false
	}
	return re.Response.StatusCode == http.StatusBadRequest || re.Response.StatusCode == http.StatusUnauthorized
}
