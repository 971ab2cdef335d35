package engine

import (
	"time"

	"golang.org/x/time/rate"
)

// DefaultSnapshotInterval matches the upstream crawler's REST polling period.
const DefaultSnapshotInterval = 60 * time.Second

// throttle lets one snapshot per symbol through every interval.
type throttle struct {
	every    rate.Limit
	limiters map[string]*rate.Limiter
	now      func() time.Time
}

func newThrottle(interval time.Duration, now func() time.Time) *throttle {
	if interval <= 0 {
		interval = DefaultSnapshotInterval
	}
	return &throttle{
		every:    rate.Every(interval),
		limiters: make(map[string]*rate.Limiter),
		now:      now,
	}
}

// allow is only called from the transport's goroutine; no locking.
func (t *throttle) allow(symbol string) bool {
	l, ok := t.limiters[symbol]
	if !ok {
		l = rate.NewLimiter(t.every, 1)
		t.limiters[symbol] = l
	}
	return l.AllowN(t.now(), 1)
}
