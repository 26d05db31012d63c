// Package datastore provides the generic state container used for every slice
// of server-sourced data the client keeps, and the registry the session uses
// to clear them all on logout.
package datastore

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Clearable resets a store to its initial state.
type Clearable interface {
	Clear()
}

// Fetcher populates a store from the server.
type Fetcher[P any] interface {
	Fetch(ctx context.Context, params P) error
}

// LoadFunc retrieves a value for params.
type LoadFunc[P, T any] func(ctx context.Context, params P) (T, error)

// ErrDiscarded is returned by Fetch when the store was cleared while the
// fetch was in flight and the result was dropped.
var ErrDiscarded = errors.New("fetch result discarded after clear")

// Snapshot is a consistent view of a store.
type Snapshot[T any] struct {
	Data      T
	Loading   bool
	Err       error
	FetchedAt time.Time
}

// Store holds one slice of fetched data. Only Fetch and Clear mutate it.
type Store[P, T any] struct {
	name    string
	initial func() T
	load    LoadFunc[P, T]
	nowFunc func() time.Time

	mu        sync.RWMutex
	data      T
	inflight  int
	err       error
	fetchedAt time.Time
	epoch     uint64
}

// New creates a store whose initial (and cleared) value is produced by initial.
func New[P, T any](name string, initial func() T, load LoadFunc[P, T]) *Store[P, T] {
	return &Store[P, T]{
		name:    name,
		initial: initial,
		load:    load,
		nowFunc: time.Now,
		data:    initial(),
	}
}

func (s *Store[P, T]) Name() string {
	return s.name
}

// Fetch loads data for params. A Clear that happens while the load is in
// flight wins: the result is discarded and ErrDiscarded returned.
func (s *Store[P, T]) Fetch(ctx context.Context, params P) error {
	s.mu.Lock()
	epoch := s.epoch
	s.inflight++
	s.mu.Unlock()

	value, err := s.load(ctx, params)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return ErrDiscarded
	}
	s.inflight--
	if err != nil {
		s.err = err
		return err
	}
	s.data = value
	s.err = nil
	s.fetchedAt = s.nowFunc()
	return nil
}

// Clear resets the store to its initial value and invalidates in-flight fetches.
func (s *Store[P, T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.data = s.initial()
	s.inflight = 0
	s.err = nil
	s.fetchedAt = time.Time{}
}

func (s *Store[P, T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

func (s *Store[P, T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot[T]{
		Data:      s.data,
		Loading:   s.inflight > 0,
		Err:       s.err,
		FetchedAt: s.fetchedAt,
	}
}
