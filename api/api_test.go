package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-client/api"
	clienterrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/token"
	tokenfakerepo "github.com/jrsteele09/go-auth-client/token/repofake"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTokenStore(t *testing.T, access string) *token.Store {
	t.Helper()
	s, err := token.NewStore(tokenfakerepo.NewFakeCredentialRepo())
	require.NoError(t, err)
	if access != "" {
		require.NoError(t, s.SetTokens(context.Background(), token.Credential{AccessToken: access, RefreshToken: "r"}))
	}
	return s
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := api.New("not a url")
	require.Error(t, err)
}

func TestClient_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/clients/42", r.URL.Path)
		require.Equal(t, "1", r.URL.Query().Get("page"))
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.Equal(t, "install-1", r.Header.Get("X-Installation-ID"))
		_ = json.NewEncoder(w).Encode(profile{ID: "42", Name: "Ada"})
	}))
	defer srv.Close()

	c, err := api.New(srv.URL+"/", api.WithHeader("X-Installation-ID", "install-1"))
	require.NoError(t, err)

	var got profile
	require.NoError(t, c.GetJSON(context.Background(), "/clients/42", map[string][]string{"page": {"1"}}, &got))
	require.Equal(t, profile{ID: "42", Name: "Ada"}, got)
}

func TestClient_StatusErrors(t *testing.T) {
	var unauthorized int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/private":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c, err := api.New(srv.URL, api.WithUnauthorizedHandler(func(context.Context) {
		atomic.AddInt32(&unauthorized, 1)
	}))
	require.NoError(t, err)

	err = c.GetJSON(context.Background(), "/private", nil, &profile{})
	require.ErrorIs(t, err, clienterrors.ErrUnauthorized)
	require.Equal(t, int32(1), atomic.LoadInt32(&unauthorized))

	err = c.GetJSON(context.Background(), "/broken", nil, &profile{})
	require.ErrorIs(t, err, clienterrors.ErrRemoteFailure)
	var statusErr *api.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	require.Equal(t, int32(1), atomic.LoadInt32(&unauthorized))
}

func TestClient_SignOut(t *testing.T) {
	var called int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/session/end", r.URL.Path)
		atomic.AddInt32(&called, 1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := api.New(srv.URL, api.WithSignOutPath("/session/end"))
	require.NoError(t, err)
	require.NoError(t, c.SignOut(context.Background()))
	require.Equal(t, int32(1), atomic.LoadInt32(&called))
}

func TestClient_PrepareSignOutPinsToken(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx := context.Background()
	tokens := newTokenStore(t, "access-1")
	c, err := api.NewWithAuthMode(srv.URL, api.AuthBearer, tokens)
	require.NoError(t, err)

	send, err := c.PrepareSignOut(ctx)
	require.NoError(t, err)
	require.NoError(t, tokens.ClearTokens(ctx))

	require.NoError(t, send(ctx))
	require.Equal(t, "Bearer access-1", auth.Load())

	_, err = c.PrepareSignOut(ctx)
	require.ErrorIs(t, err, clienterrors.ErrNoCredential)
}

func TestNewWithAuthMode(t *testing.T) {
	ctx := context.Background()

	t.Run("bearer", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "Bearer a", r.Header.Get("Authorization"))
			require.Empty(t, r.URL.Query().Get("access_token"))
			_ = json.NewEncoder(w).Encode(profile{ID: "1"})
		}))
		defer srv.Close()

		c, err := api.NewWithAuthMode(srv.URL, api.AuthBearer, newTokenStore(t, "a"))
		require.NoError(t, err)
		var got profile
		require.NoError(t, c.GetJSON(ctx, "/me", nil, &got))
		require.Equal(t, "1", got.ID)
	})

	t.Run("url token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Empty(t, r.Header.Get("Authorization"))
			require.Equal(t, "a", r.URL.Query().Get("access_token"))
			require.Equal(t, "paid", r.URL.Query().Get("status"))
			_ = json.NewEncoder(w).Encode(profile{ID: "2"})
		}))
		defer srv.Close()

		c, err := api.NewWithAuthMode(srv.URL, api.AuthURLToken, newTokenStore(t, "a"))
		require.NoError(t, err)
		var got profile
		require.NoError(t, c.GetJSON(ctx, "/invoices", map[string][]string{"status": {"paid"}}, &got))
		require.Equal(t, "2", got.ID)
	})

	t.Run("url token 401 forces logout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		tokens := newTokenStore(t, "a") // no refresher configured
		var logouts int32
		tokens.SetLogoutCallback(func(context.Context) { atomic.AddInt32(&logouts, 1) })

		c, err := api.NewWithAuthMode(srv.URL, api.AuthURLToken, tokens)
		require.NoError(t, err)
		err = c.GetJSON(ctx, "/invoices", nil, &profile{})
		require.ErrorIs(t, err, clienterrors.ErrUnauthorized)
		require.Equal(t, int32(1), atomic.LoadInt32(&logouts))
		require.False(t, tokens.IsTokenAvailable(ctx))
	})

	t.Run("cookie", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/login":
				http.SetCookie(w, &http.Cookie{Name: "sid", Value: "s1", Path: "/"})
				w.WriteHeader(http.StatusNoContent)
			default:
				if _, err := r.Cookie("sid"); err != nil {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				_ = json.NewEncoder(w).Encode(profile{ID: "3"})
			}
		}))
		defer srv.Close()

		tokens := newTokenStore(t, "")
		var logouts int32
		tokens.SetLogoutCallback(func(context.Context) { atomic.AddInt32(&logouts, 1) })

		c, err := api.NewWithAuthMode(srv.URL, api.AuthCookie, tokens)
		require.NoError(t, err)
		require.NoError(t, c.PostJSON(ctx, "/login", map[string]string{"user": "ada"}, nil))

		var got profile
		require.NoError(t, c.GetJSON(ctx, "/me", nil, &got))
		require.Equal(t, "3", got.ID)

		c.ClearCache()
		err = c.GetJSON(ctx, "/me", nil, &got)
		require.ErrorIs(t, err, clienterrors.ErrUnauthorized)
		require.Equal(t, int32(1), atomic.LoadInt32(&logouts))
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := api.NewWithAuthMode("http://localhost", "smoke-signal", newTokenStore(t, ""))
		require.Error(t, err)
	})
}

func TestPasswordLogin(t *testing.T) {
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "password", r.PostForm.Get("grant_type"))
		if r.PostForm.Get("password") != "correct" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  access,
			"refresh_token": "r",
			"token_type":    "bearer",
			"expires_in":    3600,
		})
	}))
	defer srv.Close()

	cfg := &oauth2.Config{ClientID: "cli", Endpoint: oauth2.Endpoint{TokenURL: srv.URL, AuthStyle: oauth2.AuthStyleInParams}}

	credential, clientID, err := api.PasswordLogin(context.Background(), cfg, "ada", "correct")
	require.NoError(t, err)
	require.Equal(t, "7", clientID)
	require.Equal(t, "r", credential.RefreshToken)
	require.False(t, credential.Expiry.IsZero())

	_, _, err = api.PasswordLogin(context.Background(), cfg, "ada", "wrong")
	require.Error(t, err)
}

func TestDiscoverEndpoint(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/.well-known/openid-configuration", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/authorize",
			"token_endpoint":         srv.URL + "/token",
			"jwks_uri":               srv.URL + "/jwks",
		})
	}))
	defer srv.Close()

	endpoint, err := api.DiscoverEndpoint(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/token", endpoint.TokenURL)
	require.Equal(t, srv.URL+"/authorize", endpoint.AuthURL)
}
