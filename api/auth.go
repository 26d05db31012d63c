package api

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/oauth2"
)

// Authenticator attaches credentials to an outgoing request. Data stores that
// only differed by how they authenticate share one client type and differ
// only by their Authenticator.
type Authenticator interface {
	Authenticate(ctx context.Context, req *http.Request) error
}

// TokenProvider supplies the current access token.
type TokenProvider interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// Auth modes accepted by NewWithAuthMode.
const (
	AuthBearer   = "bearer"
	AuthCookie   = "cookie"
	AuthURLToken = "url_token"
	AuthNone     = "none"
)

// NoAuth sends requests as they are.
type NoAuth struct{}

func (NoAuth) Authenticate(context.Context, *http.Request) error { return nil }

// URLTokenAuth passes the access token as a query parameter, for endpoints
// that cannot read headers (downloads, embedded documents).
type URLTokenAuth struct {
	Tokens TokenProvider
	Param  string // defaults to "access_token"
}

func (u URLTokenAuth) Authenticate(ctx context.Context, req *http.Request) error {
	tok, err := u.Tokens.Token(ctx)
	if err != nil {
		return err
	}
	param := u.Param
	if param == "" {
		param = "access_token"
	}
	q := req.URL.Query()
	q.Set(param, tok.AccessToken)
	req.URL.RawQuery = q.Encode()
	return nil
}

// CookieAuth relies on the session cookie the server set at sign in. It is
// installed as the HTTP client's cookie jar and can be emptied on logout.
type CookieAuth struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

var _ http.CookieJar = (*CookieAuth)(nil)

func NewCookieAuth() *CookieAuth {
	jar, _ := cookiejar.New(nil)
	return &CookieAuth{jar: jar}
}

func (c *CookieAuth) Authenticate(context.Context, *http.Request) error { return nil }

func (c *CookieAuth) SetCookies(u *url.URL, cookies []*http.Cookie) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.jar.SetCookies(u, cookies)
}

func (c *CookieAuth) Cookies(u *url.URL) []*http.Cookie {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.jar.Cookies(u)
}

// Reset drops every cookie.
func (c *CookieAuth) Reset() {
	jar, _ := cookiejar.New(nil)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jar = jar
}
