package datastore

import (
	"sync"

	"github.com/jrsteele09/go-auth-client/internal/utils"
)

// Registry is the open-ended set of stores cleared when the session ends.
// New domain stores register themselves; the session never lists them.
type Registry struct {
	mu    sync.RWMutex
	names []string
	items []Clearable
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds c under name. Registering a name twice replaces the entry.
func (r *Registry) Register(name string, c Clearable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.names {
		if n == name {
			r.items[i] = c
			return
		}
	}
	r.names = append(r.names, name)
	r.items = append(r.items, c)
}

// ClearAll clears every registered store in registration order.
func (r *Registry) ClearAll() {
	r.mu.RLock()
	items := utils.Clone(r.items)
	r.mu.RUnlock()

	for _, c := range items {
		c.Clear()
	}
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return utils.Clone(r.names)
}
