// Package ratelimit implements a fixed-window per-client request
// limiter. Each client gets a one-minute window; requests beyond the
// configured budget are rejected until the window resets.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter tracks request counts per client key. Keys are typically
// client IPs but any stable identifier works.
type Limiter struct {
	mu        sync.Mutex
	perMinute int
	windows   map[string]*window
	stop      chan struct{}
	stopOnce  sync.Once
}

type window struct {
	start time.Time
	count int
}

// Stale client entries are dropped by a background janitor so the map
// does not grow unbounded.
const (
	janitorInterval = 5 * time.Minute
	staleAfter      = 10 * time.Minute
)

// New returns a limiter allowing perMinute requests per client key and
// starts its cleanup goroutine. Call Stop when done.
func New(perMinute int) *Limiter {
	l := &Limiter{
		perMinute: perMinute,
		windows:   make(map[string]*window),
		stop:      make(chan struct{}),
	}
	go l.janitor()
	return l
}

// Allow reports whether a request from key fits the current window.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) > time.Minute {
		l.windows[key] = &window{start: now, count: 1}
		return true
	}

	w.count++
	return w.count <= l.perMinute
}

// Tracked reports how many client keys are currently held.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Stop terminates the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.dropStale()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) dropStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-staleAfter)
	for key, w := range l.windows {
		if w.start.Before(cutoff) {
			delete(l.windows, key)
		}
	}
}
