package ratelimit

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// Result reports the outcome of a limiter check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter admits or denies requests per key within a quota.
// Implementations are safe for concurrent use.
type Limiter interface {
	Allow(key string) Result
}

type windowEntry struct {
	timestamps []time.Time
	resetAt    time.Time
}

// SlidingWindowLimiter keeps a per-key list of request timestamps pruned to a
// trailing window. State is process-local: it does not survive restarts and is
// only approximate when multiple instances run behind a load balancer.
type SlidingWindowLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*windowEntry
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// NewSlidingWindowLimiter builds an in-process sliding-window limiter and
// starts a background sweep that drops expired keys.
func NewSlidingWindowLimiter(limit int, window time.Duration) (*SlidingWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	l := &SlidingWindowLimiter{
		limit:   limit,
		window:  window,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go l.sweepLoop(5 * time.Minute)
	return l, nil
}

// Allow records a request for key and reports whether it is within quota.
func (l *SlidingWindowLimiter) Allow(key string) Result {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	now := l.now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || now.After(entry.resetAt) {
		entry = &windowEntry{
			timestamps: []time.Time{now},
			resetAt:    now.Add(l.window),
		}
		l.entries[key] = entry
		return Result{Allowed: true, Remaining: l.limit - 1, ResetAt: entry.resetAt}
	}

	cutoff := now.Add(-l.window)
	kept := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	entry.timestamps = kept

	if len(entry.timestamps) >= l.limit {
		return Result{Allowed: false, Remaining: 0, ResetAt: entry.resetAt}
	}
	entry.timestamps = append(entry.timestamps, now)
	return Result{
		Allowed:   true,
		Remaining: l.limit - len(entry.timestamps),
		ResetAt:   entry.resetAt,
	}
}

// Close stops the background sweep.
func (l *SlidingWindowLimiter) Close() {
	l.once.Do(func() { close(l.done) })
}

func (l *SlidingWindowLimiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *SlidingWindowLimiter) sweep() {
	now := l.now().UTC()
	l.mu.Lock()
	for key, entry := range l.entries {
		if now.After(entry.resetAt) {
			delete(l.entries, key)
		}
	}
	l.mu.Unlock()
}
