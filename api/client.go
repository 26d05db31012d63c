package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	clienterrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const maxErrorBody = 4 << 10

// Client calls the remote service's JSON endpoints.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	auth           Authenticator
	signOutPath    string
	onUnauthorized func(ctx context.Context)
	headers        http.Header
	bearer         TokenProvider
	logger         zerolog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.http = h
	}
}

func WithAuthenticator(a Authenticator) ClientOption {
	return func(c *Client) {
		c.auth = a
	}
}

func WithSignOutPath(path string) ClientOption {
	return func(c *Client) {
		c.signOutPath = path
	}
}

// WithUnauthorizedHandler is called whenever the server answers 401.
func WithUnauthorizedHandler(fn func(ctx context.Context)) ClientOption {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// WithBearerTokens pins the current access token on requests prepared ahead
// of sending, so they stay authorized after the credential is cleared.
func WithBearerTokens(p TokenProvider) ClientOption {
	return func(c *Client) {
		c.bearer = p
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(name, value string) ClientOption {
	return func(c *Client) {
		c.headers.Set(name, value)
	}
}

func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

func New(baseURL string, options ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[api.New] invalid base URL %q", baseURL)
	}

	c := &Client{
		baseURL:     u,
		auth:        NoAuth{},
		signOutPath: "/auth/logout",
		headers:     http.Header{},
		logger:      log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if jar, ok := c.auth.(http.CookieJar); ok && c.http.Jar == nil {
		h := *c.http
		h.Jar = jar
		c.http = &h
	}
	return c, nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return clienterrors.ErrUnauthorized
	}
	return clienterrors.ErrRemoteFailure
}

// GetJSON issues a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// PostJSON posts body as JSON and decodes the response into out when non-nil.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// SignOut asks the server to invalidate the current session.
func (c *Client) SignOut(ctx context.Context) error {
	send, err := c.PrepareSignOut(ctx)
	if err != nil {
		return err
	}
	return send(ctx)
}

// PrepareSignOut builds and authorizes the sign-out request now and returns
// the function that sends it. The credential may be cleared in between.
func (c *Client) PrepareSignOut(ctx context.Context) (func(context.Context) error, error) {
	req, err := c.newRequest(ctx, http.MethodPost, c.signOutPath, nil, nil)
	if err != nil {
		return nil, err
	}
	if c.bearer != nil {
		tok, err := c.bearer.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("api: authenticate POST %s: %w", c.signOutPath, err)
		}
		req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	}
	return func(sendCtx context.Context) error {
		return c.send(req.WithContext(sendCtx), c.signOutPath, nil)
	}, nil
}

// ClearCache drops transport state tied to the signed in user.
func (c *Client) ClearCache() {
	if r, ok := c.auth.(interface{ Reset() }); ok {
		r.Reset()
	}
	if t, ok := c.http.Transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	return c.send(req, path, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: marshal %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("api: new request: %w", err)
	}
	for name, values := range c.headers {
		req.Header[name] = values
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.auth.Authenticate(ctx, req); err != nil {
		return nil, fmt.Errorf("api: authenticate %s %s: %w", method, path, err)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, path string, out any) error {
	ctx, method := req.Context(), req.Method
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(msg)}
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		c.logger.Debug().
			Str("request_id", req.Header.Get("X-Request-ID")).
			Int("status", resp.StatusCode).
			Msgf("%s %s failed", method, path)
		return statusErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("api: decode %s %s: %w", method, path, err)
	}
	return nil
}
