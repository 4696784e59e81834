package ratelimit

import (
	"sync"
	"time"
)

// Limiter throttles per-key attempts over a trailing window: at most limit
// attempts inside the window, admitting again once the earliest recorded
// attempt ages out. State is in-process only; a restart clears it, which is
// acceptable for an advisory throttle.
//
// Each key carries its own mutex so unrelated keys never serialize against
// each other.
type Limiter struct {
	limit  int
	window time.Duration
	keys   sync.Map // string -> *entry
	now    func() time.Time
}

type entry struct {
	mu   sync.Mutex
	hits []time.Time
}

func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow records an attempt for key and reports whether it is inside the
// limit. A rejected attempt is not recorded. Memory per key is bounded by
// the limit: entries older than the window are pruned on every call.
func (l *Limiter) Allow(key string) bool {
	e := l.entry(key)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := e.hits[:0]
	for _, t := range e.hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	e.hits = kept

	if len(e.hits) >= l.limit {
		return false
	}
	e.hits = append(e.hits, now)
	return true
}

func (l *Limiter) entry(key string) *entry {
	if v, ok := l.keys.Load(key); ok {
		return v.(*entry)
	}
	v, _ := l.keys.LoadOrStore(key, &entry{})
	return v.(*entry)
}
