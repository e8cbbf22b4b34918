// Package stats keeps best-effort counters of submission outcomes.
//
// Recorders never take part in admission decisions; a failing recorder is
// logged and ignored by callers.
package stats

import (
	"context"
	"sync"
	"time"
)

// Event is one handled submission.
type Event struct {
	Outcome string
	At      time.Time
}

// Recorder persists outcome events.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// MemoryRecorder counts outcomes in process memory.
type MemoryRecorder struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewMemoryRecorder constructs a MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{counts: make(map[string]int64)}
}

// Record increments the counter for ev.Outcome.
func (r *MemoryRecorder) Record(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[ev.Outcome]++
	return nil
}

// Snapshot returns a copy of the counters.
func (r *MemoryRecorder) Snapshot() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64, len(r.counts))
	for k, v := range r.counts {
		out[k] = v
	}
	return out
}
