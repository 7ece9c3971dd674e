// Package cache provides a small in-process LRU store with per-entry
// expiry. It backs the token verification cache so hot request paths do
// not re-verify the same bearer token on every call.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Store is a fixed-capacity LRU keyed by string. All methods are safe
// for concurrent use.
type Store[V any] struct {
	mu      sync.Mutex
	cap     int
	ttl     time.Duration
	entries map[string]*list.Element
	order   *list.List
}

type entry[V any] struct {
	key      string
	value    V
	deadline time.Time
}

// New returns a store holding at most capacity entries, each expiring
// ttl after insertion.
func New[V any](capacity int, ttl time.Duration) *Store[V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Store[V]{
		cap:     capacity,
		ttl:     ttl,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get returns the value for key if present and not expired. Expired
// entries are dropped on access.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	el, ok := s.entries[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[V])
	if time.Now().After(e.deadline) {
		s.evict(el)
		return zero, false
	}
	s.order.MoveToFront(el)
	return e.value, true
}

// Put stores value under key with the default ttl.
func (s *Store[V]) Put(key string, value V) {
	s.PutUntil(key, value, time.Now().Add(s.ttl))
}

// PutUntil stores value under key, expiring at the earlier of deadline
// and the default ttl. The oldest entry is evicted when over capacity.
func (s *Store[V]) PutUntil(key string, value V, deadline time.Time) {
	byTTL := time.Now().Add(s.ttl)
	if deadline.IsZero() || byTTL.Before(deadline) {
		deadline = byTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := &entry[V]{key: key, value: value, deadline: deadline}
	if el, ok := s.entries[key]; ok {
		el.Value = e
		s.order.MoveToFront(el)
		return
	}
	s.entries[key] = s.order.PushFront(e)
	if s.order.Len() > s.cap {
		if oldest := s.order.Back(); oldest != nil {
			s.evict(oldest)
		}
	}
}

// Remove drops key from the store if present.
func (s *Store[V]) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.entries[key]; ok {
		s.evict(el)
	}
}

// Len reports the number of stored entries, expired ones included.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Purge drops every expired entry and returns how many were removed.
func (s *Store[V]) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var stale []*list.Element
	for el := s.order.Front(); el != nil; el = el.Next() {
		if now.After(el.Value.(*entry[V]).deadline) {
			stale = append(stale, el)
		}
	}
	for _, el := range stale {
		s.evict(el)
	}
	return len(stale)
}

func (s *Store[V]) evict(el *list.Element) {
	delete(s.entries, el.Value.(*entry[V]).key)
	s.order.Remove(el)
}
