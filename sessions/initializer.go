package sessions

import (
	"context"
	"sync"
	"sync/atomic"
)

// Initializer runs the one-time session startup: it registers the forced
// logout handler and then restores the previous session.
type Initializer struct {
	store       *Store
	clearCaches []func()

	once     sync.Once
	initDone atomic.Bool
	done     chan struct{}
}

// NewInitializer returns an initializer for store. clearCaches run after the
// session cleanup of every forced logout, e.g. to drop transport cookies.
func NewInitializer(store *Store, clearCaches ...func()) *Initializer {
	return &Initializer{
		store:       store,
		clearCaches: clearCaches,
		done:        make(chan struct{}),
	}
}

// Run performs startup once per process. Later calls return immediately, or
// block until the first call finishes if it is still running.
func (i *Initializer) Run(ctx context.Context) {
	i.once.Do(func() {
		// Registered before restoring so a credential failure during the
		// restore already has a handler.
		i.store.deps.Tokens.SetLogoutCallback(i.forcedLogout)
		i.store.RestoreSession(ctx)
		i.initDone.Store(true)
		close(i.done)
	})
}

func (i *Initializer) forcedLogout(ctx context.Context) {
	i.store.LogoutCallback(ctx)
	for _, clearCache := range i.clearCaches {
		clearCache()
	}
}

// InitDone reports whether the startup restore has settled.
func (i *Initializer) InitDone() bool {
	return i.initDone.Load()
}

// Done is closed once the startup restore has settled.
func (i *Initializer) Done() <-chan struct{} {
	return i.done
}
