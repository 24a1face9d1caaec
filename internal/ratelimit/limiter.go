// Package ratelimit provides a per-client sliding-window rate limiter for
// the ranking endpoint. It is local to the process and does not coordinate
// across instances.
package ratelimit

import (
	"sync"
	"time"
)

const (
	defaultLimit  = 10
	defaultWindow = time.Hour

	// sweepEvery controls how often Allow opportunistically prunes windows
	// of clients other than the caller, so abandoned clients do not
	// accumulate for the process lifetime.
	sweepEvery = 64
)

// Limiter tracks request timestamps per client and rejects a request once
// the client already has limit requests inside the sliding window. Safe for
// concurrent use.
type Limiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	clients map[string][]time.Time
	allows  uint64

	now func() time.Time // for testing
}

// New creates a limiter. Non-positive arguments fall back to the defaults of
// 10 requests per hour.
func New(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = defaultLimit
	}
	if window <= 0 {
		window = defaultWindow
	}

	return &Limiter{
		limit:   limit,
		window:  window,
		clients: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow reports whether the client may proceed, recording the request
// timestamp when admitted. Timestamps older than the window are pruned
// before the count is evaluated. Granularity is whole seconds.
func (l *Limiter) Allow(clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().Truncate(time.Second)

	l.allows++
	if l.allows%sweepEvery == 0 {
		l.sweep(now)
	}

	recent := prune(l.clients[clientID], now, l.window)

	if len(recent) >= l.limit {
		l.clients[clientID] = recent
		return false
	}

	l.clients[clientID] = append(recent, now)
	return true
}

// Clients returns the number of tracked client windows.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Limit returns the configured request limit per window.
func (l *Limiter) Limit() int {
	return l.limit
}

// Window returns the configured sliding window duration.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// sweep prunes all windows and drops clients whose window became empty.
// Caller must hold the lock.
func (l *Limiter) sweep(now time.Time) {
	for id, stamps := range l.clients {
		recent := prune(stamps, now, l.window)
		if len(recent) == 0 {
			delete(l.clients, id)
			continue
		}
		l.clients[id] = recent
	}
}

func prune(stamps []time.Time, now time.Time, window time.Duration) []time.Time {
	recent := stamps[:0]
	for _, ts := range stamps {
		if now.Sub(ts) < window {
			recent = append(recent, ts)
		}
	}
	return recent
}
