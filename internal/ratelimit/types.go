package ratelimit

import (
	"math"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter provides rate limit checks keyed by caller identity.
type Limiter interface {
	Check(identifier string) Result
}

// RetryAfterSeconds returns the whole seconds a caller should wait before retrying,
// rounded up. It never returns less than zero.
func (r Result) RetryAfterSeconds(now time.Time) int {
	wait := r.Reset.Sub(now)
	if wait <= 0 {
		return 0
	}
	return int(math.Ceil(wait.Seconds()))
}
