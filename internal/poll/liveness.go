package poll

import (
	"sync/atomic"
	"time"
)

// DefaultStaleThreshold tolerates one missed interval plus a full retry
// exhaustion before a site is reported stale.
const DefaultStaleThreshold = 90 * time.Second

// LivenessTracker records the instant of the last successful poll and
// answers staleness queries. Time is tracked as monotonic elapsed
// nanoseconds against a fixed base instant, stored in a single atomic
// word so the health handler can read it while the loop writes.
type LivenessTracker struct {
	base time.Time
	last atomic.Int64
}

// NewLivenessTracker starts the staleness window at now. A site that
// never polls successfully turns stale one threshold after start.
func NewLivenessTracker(now time.Time) *LivenessTracker {
	return &LivenessTracker{base: now}
}

// RecordSuccess marks a successful poll at now. Failed polls never call
// this, so staleness is a rolling window cleared by the next success.
func (t *LivenessTracker) RecordSuccess(now time.Time) {
	t.last.Store(now.Sub(t.base).Nanoseconds())
}

// IsStale reports whether more than threshold has elapsed since the
// last successful poll.
func (t *LivenessTracker) IsStale(now time.Time, threshold time.Duration) bool {
	elapsed := now.Sub(t.base) - time.Duration(t.last.Load())
	return elapsed > threshold
}

// SinceSuccess returns the time elapsed since the last successful poll.
func (t *LivenessTracker) SinceSuccess(now time.Time) time.Duration {
	return now.Sub(t.base) - time.Duration(t.last.Load())
}
