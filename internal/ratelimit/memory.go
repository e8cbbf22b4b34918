package ratelimit

import (
	"math/rand"
	"sync"
	"time"

	internalsettings "github.com/folio-studio/contactgate/internal/settings"
)

type memoryEntry struct {
	count int
	reset time.Time
}

// MemoryLimiter implements a fixed-window in-memory rate limiter.
//
// The window for an identifier opens on its first admitted request and lasts
// for the configured window; it is not aligned to wall-clock boundaries. State
// is local to the process, so every instance of the service enforces its own quota.
type MemoryLimiter struct {
	mu          sync.Mutex
	counters    map[string]*memoryEntry
	window      time.Duration
	maxRequests int
	cleanupProb float64
	nowFn       func() time.Time
	randFn      func() float64
}

// MemoryOption customizes a MemoryLimiter.
type MemoryOption func(*MemoryLimiter)

// WithClock overrides the time source.
func WithClock(nowFn func() time.Time) MemoryOption {
	return func(l *MemoryLimiter) {
		if nowFn != nil {
			l.nowFn = nowFn
		}
	}
}

// WithRandom overrides the random source used to trigger cleanup.
func WithRandom(randFn func() float64) MemoryOption {
	return func(l *MemoryLimiter) {
		if randFn != nil {
			l.randFn = randFn
		}
	}
}

// WithCleanupProbability sets the chance that a check sweeps expired entries.
func WithCleanupProbability(p float64) MemoryOption {
	return func(l *MemoryLimiter) {
		if p >= 0 && p <= 1 {
			l.cleanupProb = p
		}
	}
}

// NewMemoryLimiter constructs a MemoryLimiter. Non-positive values fall back to
// the defaults (60s window, 5 requests).
func NewMemoryLimiter(window time.Duration, maxRequests int, opts ...MemoryOption) *MemoryLimiter {
	if window <= 0 {
		window = internalsettings.DefaultRateLimitWindow
	}
	if maxRequests <= 0 {
		maxRequests = internalsettings.DefaultRateLimitMaxRequests
	}
	l := &MemoryLimiter{
		counters:    make(map[string]*memoryEntry),
		window:      window,
		maxRequests: maxRequests,
		cleanupProb: internalsettings.DefaultRateLimitCleanupProbability,
		nowFn:       time.Now,
		randFn:      rand.Float64,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Window returns the configured window length.
func (l *MemoryLimiter) Window() time.Duration { return l.window }

// MaxRequests returns the configured admissions per window.
func (l *MemoryLimiter) MaxRequests() int { return l.maxRequests }

// Check records an attempt for identifier and reports whether it is admitted.
// Rejected attempts do not consume quota.
func (l *MemoryLimiter) Check(identifier string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	if l.cleanupProb > 0 && l.randFn() < l.cleanupProb {
		l.sweepLocked(now)
	}

	entry := l.counters[identifier]
	if entry == nil || now.After(entry.reset) {
		entry = &memoryEntry{count: 1, reset: now.Add(l.window)}
		l.counters[identifier] = entry
		return Result{Allowed: true, Remaining: l.maxRequests - 1, Reset: entry.reset}
	}
	if entry.count >= l.maxRequests {
		return Result{Allowed: false, Remaining: 0, Reset: entry.reset}
	}
	entry.count++
	return Result{Allowed: true, Remaining: l.maxRequests - entry.count, Reset: entry.reset}
}

// Cleanup evicts every entry whose window has passed.
func (l *MemoryLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(l.nowFn())
}

// Len returns the number of tracked identifiers, including expired ones not yet swept.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counters)
}

func (l *MemoryLimiter) sweepLocked(now time.Time) {
	for key, entry := range l.counters {
		if now.After(entry.reset) {
			delete(l.counters, key)
		}
	}
}
