// Package cache provides the per-kind result cache with get-or-populate
// semantics.
//
// By default a Store never evicts and does not collapse concurrent misses for
// the same key: both callers fetch and the last write wins. Options opt into
// an LRU bound and in-flight deduplication.
package cache

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/wildanrfq/filmbro/internal/metrics"
)

// Options tunes a Store.
type Options struct {
	// MaxEntries bounds the store with LRU eviction when > 0.
	MaxEntries int
	// DedupeInflight collapses concurrent misses for one key into one fetch.
	DedupeInflight bool
}

// FetchFunc produces the value for a missing key.
type FetchFunc[V any] func(ctx context.Context) (V, error)

type backend[V any] interface {
	Get(key string) (V, bool)
	Add(key string, value V)
	Len() int
}

// Store is a keyed store of fetched entities for one entity kind. Keys are
// used verbatim, so "Heat" and "heat" are distinct entries.
type Store[V any] struct {
	kind  string
	clone func(V) V

	mu    sync.RWMutex
	items backend[V]
	group *singleflight.Group
}

// New builds a Store for kind. clone must return a deep copy; it is applied on
// every read so callers never alias stored values.
func New[V any](kind string, clone func(V) V, opts Options) (*Store[V], error) {
	if clone == nil {
		clone = func(v V) V { return v }
	}
	s := &Store[V]{kind: kind, clone: clone}
	if opts.MaxEntries > 0 {
		bounded, err := lru.New[string, V](opts.MaxEntries)
		if err != nil {
			return nil, fmt.Errorf("build %s lru: %w", kind, err)
		}
		s.items = lruBackend[V]{cache: bounded}
	} else {
		s.items = mapBackend[V]{}
	}
	if opts.DedupeInflight {
		s.group = &singleflight.Group{}
	}
	return s, nil
}

// Kind returns the entity kind this store serves.
func (s *Store[V]) Kind() string {
	return s.kind
}

// Get returns a copy of the stored value for key.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	v, ok := s.items.Get(key)
	s.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	return s.clone(v), true
}

// Len reports the number of stored entries.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Len()
}

// GetOrFetch returns a copy of the value stored under key, invoking fetch and
// storing its result on a miss. fetch runs without the lock held. A fetch
// error is returned as-is and nothing is stored.
func (s *Store[V]) GetOrFetch(ctx context.Context, key string, fetch FetchFunc[V]) (V, error) {
	if v, ok := s.Get(key); ok {
		metrics.ObserveCache(s.kind, true)
		return v, nil
	}
	metrics.ObserveCache(s.kind, false)

	var (
		v   V
		err error
	)
	if s.group != nil {
		v, err = s.fetchShared(ctx, key, fetch)
	} else {
		v, err = s.fetchAndStore(ctx, key, fetch)
	}
	if err != nil {
		var zero V
		return zero, err
	}
	return s.clone(v), nil
}

func (s *Store[V]) fetchShared(ctx context.Context, key string, fetch FetchFunc[V]) (V, error) {
	res, err, _ := s.group.Do(key, func() (any, error) {
		return s.fetchAndStore(ctx, key, fetch)
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

func (s *Store[V]) fetchAndStore(ctx context.Context, key string, fetch FetchFunc[V]) (V, error) {
	v, err := fetch(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	s.mu.Lock()
	s.items.Add(key, v)
	n := s.items.Len()
	s.mu.Unlock()
	metrics.SetCacheEntries(s.kind, n)
	return v, nil
}

type mapBackend[V any] map[string]V

func (m mapBackend[V]) Get(key string) (V, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapBackend[V]) Add(key string, value V) {
	m[key] = value
}

func (m mapBackend[V]) Len() int {
	return len(m)
}

type lruBackend[V any] struct {
	cache *lru.Cache[string, V]
}

func (b lruBackend[V]) Get(key string) (V, bool) {
	return b.cache.Get(key)
}

func (b lruBackend[V]) Add(key string, value V) {
	b.cache.Add(key, value)
}

func (b lruBackend[V]) Len() int {
	return b.cache.Len()
}
