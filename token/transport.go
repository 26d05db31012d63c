package token

import (
	"net/http"
)

// Transport authorizes outgoing requests with the store's bearer token. A 401
// answer triggers one forced refresh and a retry; when the refresh cannot
// succeed the session is logged out.
type Transport struct {
	Store *Store
	Base  http.RoundTripper
}

func (s *Store) Transport(base http.RoundTripper) *Transport {
	return &Transport{Store: s, Base: base}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip keeps an Authorization header the caller already set for the
// first attempt.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	first := req
	if req.Header.Get("Authorization") == "" {
		tok, err := t.Store.Token(ctx)
		if err != nil {
			return nil, err
		}
		first = authorize(req, tok.AccessToken)
	}

	resp, err := t.base().RoundTrip(first)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	if !t.Store.HandleUnauthorized(ctx) {
		return resp, nil
	}

	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return resp, nil
	}
	retry := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return resp, nil
		}
		retry.Body = body
	}
	tok, err := t.Store.Token(ctx)
	if err != nil {
		return resp, nil
	}
	_ = resp.Body.Close()
	return t.base().RoundTrip(authorize(retry, tok.AccessToken))
}

func authorize(req *http.Request, accessToken string) *http.Request {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+accessToken)
	return r
}
