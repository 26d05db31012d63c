package sessions_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/jrsteele09/go-auth-client/clientdata"
	"github.com/jrsteele09/go-auth-client/datastore"
	clienterrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/internal/metrics"
	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/jrsteele09/go-auth-client/storage"
	"github.com/jrsteele09/go-auth-client/token"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeTokens is an in-memory TokenStore with hooks for interleaving tests.
type fakeTokens struct {
	mu          sync.Mutex
	credential  *token.Credential
	callback    token.LogoutCallback
	setErr      error
	clearCalls  int
	checks      int
	onAvailable func(ctx context.Context)
	onSet       func(ctx context.Context)
}

func (f *fakeTokens) SetTokens(ctx context.Context, c token.Credential) error {
	f.mu.Lock()
	if f.setErr != nil {
		f.mu.Unlock()
		return f.setErr
	}
	f.credential = &c
	hook := f.onSet
	f.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}
	return nil
}

func (f *fakeTokens) ClearTokens(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credential = nil
	f.clearCalls++
	return nil
}

func (f *fakeTokens) IsTokenAvailable(ctx context.Context) bool {
	f.mu.Lock()
	f.checks++
	available := f.credential != nil
	hook := f.onAvailable
	f.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}
	return available
}

func (f *fakeTokens) SetLogoutCallback(fn token.LogoutCallback) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callback = fn
}

func (f *fakeTokens) registeredCallback() token.LogoutCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callback
}

func (f *fakeTokens) held() *token.Credential {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.credential
}

func (f *fakeTokens) clears() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clearCalls
}

// fakeGetter answers the domain stores' GETs with canned JSON.
type fakeGetter struct {
	mu        sync.Mutex
	paths     []string
	responses map[string]any
	err       error
	started   chan string   // receives the path of every call when set
	release   chan struct{} // blocks every call until closed when set
}

func newFakeGetter() *fakeGetter {
	return &fakeGetter{
		responses: map[string]any{
			"/clients/42":                 clientdata.Profile{ID: "42", FirstName: "Ada"},
			"/clients/7":                  clientdata.Profile{ID: "7", FirstName: "Grace"},
			"/clients/7/visits":           []clientdata.Visit{{ID: "v1"}},
			"/clients/7/packages":         []clientdata.Package{{ID: "p1"}},
			"/clients/7/invoices":         []clientdata.Invoice{{ID: "i1"}},
			"/me":                         clientdata.UserInfo{UserID: "u7"},
			"/notifications/unread-count": clientdata.NotificationCount{Unread: 4},
		},
	}
}

func (g *fakeGetter) GetJSON(_ context.Context, path string, _ url.Values, out any) error {
	g.mu.Lock()
	g.paths = append(g.paths, path)
	err := g.err
	resp, ok := g.responses[path]
	started, release := g.started, g.release
	g.mu.Unlock()

	if started != nil {
		started <- path
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return err
	}
	if !ok {
		return clienterrors.ErrNotFound
	}
	data, _ := json.Marshal(resp)
	return json.Unmarshal(data, out)
}

func (g *fakeGetter) calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.paths...)
}

type fakeSignOut struct {
	tokens *fakeTokens

	mu            sync.Mutex
	calls         int
	heldAtPrepare bool
	prepareErr    error
	err           error
	block         bool          // wait for the context to end
	release       chan struct{} // wait until closed when set
}

func (f *fakeSignOut) PrepareSignOut(context.Context) (func(context.Context) error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prepareErr != nil {
		return nil, f.prepareErr
	}
	f.heldAtPrepare = f.tokens.held() != nil
	return f.send, nil
}

func (f *fakeSignOut) send(ctx context.Context) error {
	f.mu.Lock()
	f.calls++
	err, block, release := f.err, f.block, f.release
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if release != nil {
		<-release
	}
	return err
}

func (f *fakeSignOut) sent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// failingStorage fails every operation.
type failingStorage struct{}

func (failingStorage) GetItem(context.Context, string, any) (bool, error) {
	return false, clienterrors.ErrStorageUnavailable
}

func (failingStorage) SetItem(context.Context, string, any) error {
	return clienterrors.ErrStorageUnavailable
}

func (failingStorage) DeleteAll(context.Context) error {
	return clienterrors.ErrStorageUnavailable
}

// testFixture holds a session store and all of its collaborators
type testFixture struct {
	tokens   *fakeTokens
	storage  storage.Store
	getter   *fakeGetter
	stores   *clientdata.Stores
	registry *datastore.Registry
	signOut  *fakeSignOut
	metrics  *metrics.Metrics
	store    *sessions.Store
}

type fixtureOption func(*testFixture)

func withStorage(s storage.Store) fixtureOption {
	return func(f *testFixture) {
		f.storage = s
	}
}

func setupTestFixture(t *testing.T, options ...fixtureOption) *testFixture {
	t.Helper()

	f := &testFixture{
		tokens:   &fakeTokens{},
		storage:  storage.NewMemoryStore(),
		getter:   newFakeGetter(),
		registry: datastore.NewRegistry(),
		metrics:  metrics.New(nil),
	}
	f.signOut = &fakeSignOut{tokens: f.tokens}
	for _, opt := range options {
		opt(f)
	}
	f.stores = clientdata.New(f.getter, f.getter)
	f.stores.Register(f.registry)

	store, err := sessions.NewStore(sessions.Deps{
		Tokens:     f.tokens,
		Storage:    f.storage,
		Profile:    f.stores,
		SignOut:    f.signOut,
		Clearables: f.registry,
	},
		sessions.WithLogger(zerolog.Nop()),
		sessions.WithMetrics(f.metrics),
	)
	require.NoError(t, err)
	f.store = store
	return f
}

// persistSession simulates state left behind by a previous run.
func (f *testFixture) persistSession(t *testing.T, clientID string) {
	t.Helper()
	f.tokens.credential = &token.Credential{AccessToken: "a", RefreshToken: "r"}
	if clientID != "" {
		require.NoError(t, f.storage.SetItem(context.Background(), storage.KeyClientID, clientID))
	}
}

var errOffline = errors.New("offline")
