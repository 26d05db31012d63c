package token

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	clienterrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// LogoutCallback is invoked when the credential becomes unusable and the
// session has to be torn down.
type LogoutCallback func(ctx context.Context)

// Store owns the client's credential. It is the only component that reads or
// writes the persisted token pair.
type Store struct {
	repo      Repo
	refresher Refresher
	leeway    time.Duration
	nowFunc   func() time.Time
	logger    zerolog.Logger

	mu       sync.Mutex
	current  *Credential
	loaded   bool
	onLogout LogoutCallback

	refreshMu sync.Mutex // serialises refreshes so one rotation happens at a time
}

type StoreOption func(*Store)

func WithRefresher(r Refresher) StoreOption {
	return func(s *Store) {
		s.refresher = r
	}
}

// WithExpiryLeeway treats access tokens as expired this long before their exp claim.
func WithExpiryLeeway(d time.Duration) StoreOption {
	return func(s *Store) {
		s.leeway = d
	}
}

func WithNowFunc(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowFunc = now
	}
}

func WithLogger(l zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

func NewStore(repo Repo, options ...StoreOption) (*Store, error) {
	if repo == nil {
		return nil, errors.New("[NewStore] repo is required")
	}
	s := &Store{
		repo:    repo,
		leeway:  30 * time.Second,
		nowFunc: time.Now,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// SetTokens stores a new credential, replacing any previous one.
func (s *Store) SetTokens(ctx context.Context, c Credential) error {
	if c.IsZero() {
		return fmt.Errorf("Store.SetTokens: %w", clienterrors.ErrInvalidCredential)
	}
	if c.Expiry.IsZero() {
		c.Expiry, _ = ParseExpiry(c.AccessToken)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Upsert(ctx, &c); err != nil {
		return clienterrors.Wrapf(err, "Store.SetTokens")
	}
	s.current = &c
	s.loaded = true
	return nil
}

// ClearTokens drops the credential from memory and from the repo. The
// in-memory copy is dropped even when the repo delete fails.
func (s *Store) ClearTokens(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.loaded = true
	if err := s.repo.Delete(ctx); err != nil {
		return clienterrors.Wrapf(err, "Store.ClearTokens")
	}
	return nil
}

// SetLogoutCallback registers the single forced-logout handler, replacing
// any previous registration.
func (s *Store) SetLogoutCallback(fn LogoutCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = fn
}

// IsTokenAvailable reports whether a resumable credential is held. An expired
// access token is refreshed first. A refresh the server rejects triggers a
// forced logout and reports false; a transient refresh failure keeps the
// credential and reports true.
func (s *Store) IsTokenAvailable(ctx context.Context) bool {
	c, err := s.credential(ctx)
	if err != nil {
		if !errors.Is(err, clienterrors.ErrNoCredential) {
			s.logger.Warn().Err(err).Msg("failed to read credential")
		}
		return false
	}
	if !c.Expired(s.nowFunc(), s.leeway) {
		return true
	}

	_, err = s.refresh(ctx, c)
	switch {
	case err == nil:
		return true
	case errors.Is(err, clienterrors.ErrRefreshRejected),
		errors.Is(err, clienterrors.ErrInvalidRefreshToken),
		errors.Is(err, clienterrors.ErrTokenExpired):
		return false
	default:
		s.logger.Warn().Err(err).Msg("credential refresh failed, keeping session")
		return true
	}
}

// Token returns a usable access token, refreshing it when it has expired.
func (s *Store) Token(ctx context.Context) (*oauth2.Token, error) {
	c, err := s.credential(ctx)
	if err != nil {
		return nil, err
	}
	if !c.Expired(s.nowFunc(), s.leeway) {
		return c.OAuth2Token(), nil
	}
	refreshed, err := s.refresh(ctx, c)
	if err != nil {
		return nil, err
	}
	return refreshed.OAuth2Token(), nil
}

// TokenSource adapts the store to oauth2.TokenSource.
func (s *Store) TokenSource(ctx context.Context) oauth2.TokenSource {
	return tokenSource{ctx: ctx, store: s}
}

type tokenSource struct {
	ctx   context.Context
	store *Store
}

func (t tokenSource) Token() (*oauth2.Token, error) {
	return t.store.Token(t.ctx)
}

// ForceRefresh refreshes the credential regardless of its local expiry. It is
// used after the server answered 401 for a token we believed valid.
func (s *Store) ForceRefresh(ctx context.Context) error {
	c, err := s.credential(ctx)
	if err != nil {
		return err
	}
	_, err = s.refresh(ctx, c)
	return err
}

// HandleUnauthorized reacts to the server refusing the current access token.
// It reports true when a fresh credential is available for a retry; a refresh
// that cannot succeed ends in a forced logout.
func (s *Store) HandleUnauthorized(ctx context.Context) bool {
	err := s.ForceRefresh(ctx)
	switch {
	case err == nil:
		return true
	case errors.Is(err, clienterrors.ErrRefreshRejected):
		// refresh already forced the logout
	case errors.Is(err, clienterrors.ErrInvalidRefreshToken), errors.Is(err, clienterrors.ErrTokenExpired):
		s.ForceLogout(ctx)
	default:
		s.logger.Warn().Err(err).Msg("refresh after 401 failed")
	}
	return false
}

// ForceLogout clears the credential and invokes the registered logout callback.
func (s *Store) ForceLogout(ctx context.Context) {
	if err := s.ClearTokens(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear credential on forced logout")
	}

	s.mu.Lock()
	fn := s.onLogout
	s.mu.Unlock()

	if fn == nil {
		s.logger.Warn().Msg("forced logout with no logout callback registered")
		return
	}
	s.logger.Info().Msg("credential rejected, forcing logout")
	fn(ctx)
}

func (s *Store) credential(ctx context.Context) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		c, err := s.repo.Get(ctx)
		if err != nil && !errors.Is(err, clienterrors.ErrNotFound) {
			return Credential{}, err
		}
		s.current = c
		s.loaded = true
	}
	if s.current == nil || s.current.IsZero() {
		return Credential{}, clienterrors.ErrNoCredential
	}
	return *s.current, nil
}

func (s *Store) refresh(ctx context.Context, stale Credential) (Credential, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Another caller may have rotated the credential while we waited.
	if current, err := s.credential(ctx); err != nil {
		return Credential{}, err
	} else if current.AccessToken != stale.AccessToken {
		return current, nil
	}

	if s.refresher == nil {
		return Credential{}, clienterrors.ErrTokenExpired
	}
	if stale.RefreshToken == "" {
		return Credential{}, clienterrors.ErrInvalidRefreshToken
	}

	fresh, err := s.refresher.Refresh(ctx, stale.RefreshToken)
	if err != nil {
		if errors.Is(err, clienterrors.ErrRefreshRejected) {
			s.ForceLogout(ctx)
		}
		return Credential{}, err
	}
	if err := s.SetTokens(ctx, fresh); err != nil {
		return Credential{}, err
	}
	return fresh, nil
}
