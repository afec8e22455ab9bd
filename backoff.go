package rollgate

import (
	"math"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// fullJitterBackOff implements backoff.BackOff with the exact schedule
// the event flusher's retry behavior is pinned to: delay doubles with
// each retry starting from BaseMs, is capped at MaxMs, and is then
// scaled by a uniform random factor in [0, 1) (full jitter) so that
// many clients retrying after a correlated outage don't all wake up at
// the same instant.
type fullJitterBackOff struct {
	baseMs  int64
	maxMs   int64
	retries int
}

// newFullJitterBackOff builds a fullJitterBackOff from cfg, implementing
// cenkalti/backoff/v4's BackOff interface so it can drive
// backoff.RetryNotify like any other retrying HTTP client built on that
// package.
func newFullJitterBackOff(cfg BackoffConfig) *fullJitterBackOff {
	return &fullJitterBackOff{baseMs: cfg.BaseMs, maxMs: cfg.MaxMs}
}

func (b *fullJitterBackOff) Reset() {
	b.retries = 0
}

func (b *fullJitterBackOff) NextBackOff() time.Duration {
	if b.retries >= 62 {
		return time.Duration(b.maxMs) * time.Millisecond
	}
	capped := math.Min(float64(b.maxMs), float64(b.baseMs)*math.Pow(2, float64(b.retries)))
	b.retries++
	jittered := rand.Float64() * capped
	return time.Duration(jittered) * time.Millisecond
}

var _ backoff.BackOff = (*fullJitterBackOff)(nil)
