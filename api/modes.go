package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/go-auth-client/token"
)

// NewWithAuthMode builds a client that authenticates the way mode names:
//   - bearer: Authorization header through the token store transport, which
//     refreshes on 401 and forces a logout when it cannot
//   - url_token: access token in the query string
//   - cookie: server session cookie kept in a resettable jar
//   - none: unauthenticated
func NewWithAuthMode(baseURL, mode string, tokens *token.Store, options ...ClientOption) (*Client, error) {
	var modeOptions []ClientOption
	switch mode {
	case AuthBearer, "":
		modeOptions = append(modeOptions,
			WithHTTPClient(&http.Client{
				Transport: tokens.Transport(nil),
				Timeout:   30 * time.Second,
			}),
			WithBearerTokens(tokens),
		)
	case AuthURLToken:
		modeOptions = append(modeOptions,
			WithAuthenticator(URLTokenAuth{Tokens: tokens}),
			WithUnauthorizedHandler(func(ctx context.Context) { tokens.HandleUnauthorized(ctx) }),
		)
	case AuthCookie:
		modeOptions = append(modeOptions,
			WithAuthenticator(NewCookieAuth()),
			WithUnauthorizedHandler(tokens.ForceLogout),
		)
	case AuthNone:
	default:
		return nil, fmt.Errorf("[api.NewWithAuthMode] unknown auth mode %q", mode)
	}
	return New(baseURL, append(modeOptions, options...)...)
}
