package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-client/datastore"
	"github.com/jrsteele09/go-auth-client/internal/metrics"
	"github.com/jrsteele09/go-auth-client/storage"
	"github.com/jrsteele09/go-auth-client/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TokenStore is the part of token.Store the session relies on.
type TokenStore interface {
	SetTokens(ctx context.Context, c token.Credential) error
	ClearTokens(ctx context.Context) error
	IsTokenAvailable(ctx context.Context) bool
	SetLogoutCallback(fn token.LogoutCallback)
}

// SignOuter invalidates the server side session. PrepareSignOut captures
// the credential the request needs; the returned function sends it.
type SignOuter interface {
	PrepareSignOut(ctx context.Context) (func(context.Context) error, error)
}

// ProfileFetcher loads the profile of the signed in client.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, clientID string) error
}

// Deps holds the collaborators of the Store.
type Deps struct {
	Tokens     TokenStore
	Storage    storage.Store
	Profile    ProfileFetcher
	SignOut    SignOuter           // optional
	Clearables *datastore.Registry // stores cleared on logout
}

// Store is the process wide session. Its operations never return errors:
// every path ends in a consistent state and failures are logged.
type Store struct {
	deps           Deps
	logger         zerolog.Logger
	metrics        *metrics.Metrics
	fetchTimeout   time.Duration
	signOutTimeout time.Duration

	mu           sync.RWMutex
	state        State
	generation   uint64 // bumped when a logout cleanup starts and again when it ends
	cleaning     int    // logout cleanups in progress
	logins       uint64 // committed logins
	listeners    map[int]func(State)
	nextListener int

	background sync.WaitGroup
}

type StoreOption func(*Store)

func WithLogger(l zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

func WithFetchTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		s.fetchTimeout = d
	}
}

// WithSignOutTimeout bounds how long logout waits for the outcome of the
// remote sign-out.
func WithSignOutTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		s.signOutTimeout = d
	}
}

func NewStore(deps Deps, options ...StoreOption) (*Store, error) {
	if deps.Tokens == nil {
		return nil, errors.New("[NewStore] Tokens is required")
	}
	if deps.Storage == nil {
		return nil, errors.New("[NewStore] Storage is required")
	}
	if deps.Profile == nil {
		return nil, errors.New("[NewStore] Profile is required")
	}
	if deps.Clearables == nil {
		deps.Clearables = datastore.NewRegistry()
	}

	s := &Store{
		deps:           deps,
		logger:         log.Logger,
		fetchTimeout:   15 * time.Second,
		signOutTimeout: 5 * time.Second,
		state:          InitialState(),
		listeners:      make(map[int]func(State)),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New(nil)
	}
	return s, nil
}

// State returns the current session state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe calls fn with every committed state. The returned function
// removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Wait blocks until background profile fetches started by Login finish.
func (s *Store) Wait() {
	s.background.Wait()
}

// Login stores the credential, remembers the client id and marks the
// session authenticated. The profile is refreshed in the background; its
// failure does not undo the login. A logout that runs while Login is in
// progress wins.
func (s *Store) Login(ctx context.Context, credential token.Credential, clientID string) {
	start := s.currentEpoch()
	logger := s.logger.With().Str("client_id", clientID).Logger()

	if err := s.deps.Tokens.SetTokens(ctx, credential); err != nil {
		logger.Error().Err(err).Msg("login failed to store credential, staying guest")
		s.update(func(st *State) { st.Loading = false })
		return
	}
	if err := s.deps.Storage.SetItem(ctx, storage.KeyClientID, clientID); err != nil {
		logger.Warn().Err(err).Msg("failed to persist client id")
	}

	committed := s.commit(func() bool { return s.noLogoutSince(start) }, func(st *State) {
		s.logins++
		st.Guest = false
		st.Loading = false
		st.ClientID = clientID
	})
	if !committed {
		logger.Info().Msg("logout during login, discarding credential")
		if err := s.deps.Tokens.ClearTokens(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to clear discarded credential")
		}
		if err := s.deps.Storage.DeleteAll(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to delete discarded client id")
		}
		return
	}
	s.metrics.Logins.Inc()

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		s.fetchProfile(fetchCtx, clientID)
	}()
}

// RestoreSession resumes a previous session from durable state. The token
// store is the authority: a held credential means authenticated, whether or
// not the profile can be fetched. Loading is always false when it returns.
func (s *Store) RestoreSession(ctx context.Context) {
	start := s.currentEpoch()
	unchanged := func() bool { return s.noLogoutSince(start) && s.logins == start.logins }
	s.update(func(st *State) { st.Loading = true })
	defer s.update(func(st *State) { st.Loading = false })

	clientID, ok, err := storage.Get[string](ctx, s.deps.Storage, storage.KeyClientID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read persisted client id")
		clientID, ok = "", false
	}
	if ok && clientID != "" {
		s.commit(unchanged, func(st *State) { st.ClientID = clientID })
	}

	if !s.deps.Tokens.IsTokenAvailable(ctx) {
		committed := s.commit(unchanged, func(st *State) {
			st.Guest = true
			st.ClientID = ""
		})
		if committed {
			s.metrics.Restores.WithLabelValues(metrics.RestoreGuest).Inc()
		} else {
			s.metrics.Restores.WithLabelValues(metrics.RestoreStale).Inc()
		}
		return
	}

	committed := s.commit(unchanged, func(st *State) {
		st.Guest = false
		st.ClientID = clientID
	})
	if !committed {
		s.metrics.Restores.WithLabelValues(metrics.RestoreStale).Inc()
		s.logger.Info().Msg("session changed during restore, keeping the newer state")
		return
	}
	s.metrics.Restores.WithLabelValues(metrics.RestoreAuthenticated).Inc()

	if clientID == "" {
		s.logger.Warn().Msg("session restored without a persisted client id, skipping profile fetch")
		return
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	s.fetchProfile(fetchCtx, clientID)
}

// Logout starts the remote sign-out and cleans up locally without waiting
// for it. It returns once the sign-out outcome is logged, or the sign-out
// timeout passed.
func (s *Store) Logout(ctx context.Context) {
	s.update(func(st *State) { st.LogoutInProgress = true })
	defer s.update(func(st *State) { st.LogoutInProgress = false })

	done := make(chan struct{})
	if send := s.prepareSignOut(ctx); send != nil {
		signOutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.signOutTimeout)
		go func() {
			defer close(done)
			defer cancel()
			if err := send(signOutCtx); err != nil {
				s.signOutFailed(err)
			}
		}()
	} else {
		close(done)
	}

	s.cleanup(ctx, metrics.OriginUser)
	<-done
}

func (s *Store) prepareSignOut(ctx context.Context) func(context.Context) error {
	if s.deps.SignOut == nil {
		return nil
	}
	send, err := s.deps.SignOut.PrepareSignOut(ctx)
	if err != nil {
		s.signOutFailed(err)
		return nil
	}
	return send
}

func (s *Store) signOutFailed(err error) {
	s.metrics.SignOutErrors.Inc()
	s.logger.Warn().Err(err).Msg("remote sign-out failed")
}

// LogoutCallback tears down the session after the credential was rejected.
// It runs the same cleanup as Logout without the remote sign-out.
func (s *Store) LogoutCallback(ctx context.Context) {
	s.cleanup(ctx, metrics.OriginForced)
}

func (s *Store) cleanup(ctx context.Context, origin string) {
	s.mu.Lock()
	s.generation++
	s.cleaning++
	s.mu.Unlock()

	s.update(func(st *State) {
		st.Loading = true
		st.Guest = true
		st.ClientID = ""
	})

	if err := s.deps.Tokens.ClearTokens(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear credential")
	}
	s.deps.Clearables.ClearAll()
	if err := s.deps.Storage.DeleteAll(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to delete persisted state")
	}

	s.mu.Lock()
	s.generation++
	s.cleaning--
	s.mu.Unlock()

	s.update(func(st *State) { st.Loading = false })
	s.metrics.Logouts.WithLabelValues(origin).Inc()
	s.logger.Info().Str("origin", origin).Msg("session cleared")
}

func (s *Store) fetchProfile(ctx context.Context, clientID string) {
	err := s.deps.Profile.FetchProfile(ctx, clientID)
	if err == nil || errors.Is(err, datastore.ErrDiscarded) {
		return
	}
	s.metrics.FetchFailures.WithLabelValues("profile").Inc()
	s.logger.Warn().Err(err).Str("client_id", clientID).Msg("profile fetch failed")
}

// epoch identifies the transitions an operation started from.
type epoch struct {
	generation uint64
	logins     uint64
}

func (s *Store) currentEpoch() epoch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return epoch{generation: s.generation, logins: s.logins}
}

// noLogoutSince reports whether no cleanup ran or is running since e. The
// caller holds s.mu.
func (s *Store) noLogoutSince(e epoch) bool {
	return s.cleaning == 0 && s.generation == e.generation
}

func (s *Store) update(fn func(*State)) {
	s.commit(nil, fn)
}

// commit applies fn when valid is nil or reports true. Both run under s.mu.
func (s *Store) commit(valid func() bool, fn func(*State)) bool {
	s.mu.Lock()
	if valid != nil && !valid() {
		s.mu.Unlock()
		return false
	}
	next := s.state
	fn(&next)
	s.state = next.normalize()
	state := s.state
	listeners := make([]func(State), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(state)
	}
	return true
}
