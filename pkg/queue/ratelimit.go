package queue

import (
	"sync"
	"time"
)

// slidingWindow caps job admissions to max per window, independent of
// worker concurrency. Over-limit dequeues are snoozed until the oldest
// admission in the window expires, so they consume no retry attempts.
type slidingWindow struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	stamps []time.Time
}

func newSlidingWindow(max int, window time.Duration) *slidingWindow {
	return &slidingWindow{
		max:    max,
		window: window,
		stamps: make([]time.Time, 0, max),
	}
}

// reserve admits one execution at now, or returns the duration to wait
// until the next slot opens. A zero return means the slot was taken.
func (l *slidingWindow) reserve(now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	kept := l.stamps[:0]
	for _, ts := range l.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.stamps = kept

	if len(l.stamps) < l.max {
		l.stamps = append(l.stamps, now)
		return 0
	}

	return l.stamps[0].Add(l.window).Sub(now)
}
