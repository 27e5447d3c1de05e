// Package ratelimit implements the general-purpose request limiter used
// in front of the API endpoints. Each named limiter keeps independent
// per-key counters in a sliding-window-by-reset scheme.
package ratelimit

import (
	"sync"
	"time"
)

// Result describes the limiter's decision for one call
type Result struct {
	Limited   bool      `json:"limited"`
	Count     int       `json:"count"`
	Remaining int       `json:"remaining"`
	ResetTime time.Time `json:"resetTime"`
}

type entry struct {
	count     int
	resetTime time.Time
}

// Limiter is a named sliding-window rate limiter. Distinct instances
// (e.g. upload vs weather) never share counters.
type Limiter struct {
	name        string
	maxRequests int
	window      time.Duration

	mu      sync.Mutex
	entries map[string]*entry
	ticker  *time.Ticker
	stopCh  chan struct{}
	now     func() time.Time
}

// New creates a limiter allowing maxRequests per window per key and
// starts the background sweep of expired entries.
func New(name string, maxRequests int, window time.Duration) *Limiter {
	l := &Limiter{
		name:        name,
		maxRequests: maxRequests,
		window:      window,
		entries:     make(map[string]*entry),
		ticker:      time.NewTicker(window),
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}

	go l.sweep()
	return l
}

// Name returns the limiter's instance name
func (l *Limiter) Name() string { return l.name }

// IsRateLimited records one call for the key and reports the decision.
// A fresh or expired entry restarts the window at count 1.
func (l *Limiter) IsRateLimited(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	e, exists := l.entries[key]
	if !exists || now.After(e.resetTime) {
		e = &entry{count: 1, resetTime: now.Add(l.window)}
		l.entries[key] = e
	} else {
		e.count++
	}

	remaining := l.maxRequests - e.count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Limited:   e.count > l.maxRequests,
		Count:     e.count,
		Remaining: remaining,
		ResetTime: e.resetTime,
	}
}

// Stop terminates the background sweep goroutine
func (l *Limiter) Stop() {
	close(l.stopCh)
}

// sweep periodically drops expired entries. This is memory hygiene
// only; IsRateLimited already treats expired entries as absent.
func (l *Limiter) sweep() {
	for {
		select {
		case <-l.ticker.C:
			l.removeExpired()
		case <-l.stopCh:
			l.ticker.Stop()
			return
		}
	}
}

func (l *Limiter) removeExpired() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, e := range l.entries {
		if now.After(e.resetTime) {
			delete(l.entries, key)
		}
	}
}
