package quota

import (
	"sync"
	"time"
)

const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour

	cleanupInterval = 10 * time.Minute
)

// slidingLimiter tracks request timestamps per caller key and enforces
// per-minute and per-hour sliding windows over the same slice. Timestamps
// older than an hour are pruned on every touch; a background loop reclaims
// keys that went quiet.
type slidingLimiter struct {
	mu      sync.Mutex
	entries map[string][]time.Time
	done    chan struct{}
	once    sync.Once
}

func newSlidingLimiter() *slidingLimiter {
	l := &slidingLimiter{
		entries: make(map[string][]time.Time),
		done:    make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// allow records the request at now and reports whether it fits both
// windows. On denial nothing is recorded and retryAfter says how long
// until the tightest violated window frees a slot. Non-positive limits
// disable the corresponding window.
func (l *slidingLimiter) allow(key string, perMinute, perHour int, now time.Time) (ok bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.prune(key, now)

	if perHour > 0 && len(ts) >= perHour {
		return false, ts[0].Add(hourWindow).Sub(now)
	}

	if perMinute > 0 {
		minuteAgo := now.Add(-minuteWindow)
		inMinute := 0
		oldest := now
		for _, t := range ts {
			if t.After(minuteAgo) {
				if inMinute == 0 {
					oldest = t
				}
				inMinute++
			}
		}
		if inMinute >= perMinute {
			return false, oldest.Add(minuteWindow).Sub(now)
		}
	}

	l.entries[key] = append(ts, now)
	return true, 0
}

// prune drops timestamps outside the hour window. Caller holds the lock.
func (l *slidingLimiter) prune(key string, now time.Time) []time.Time {
	ts := l.entries[key]
	hourAgo := now.Add(-hourWindow)
	i := 0
	for i < len(ts) && !ts[i].After(hourAgo) {
		i++
	}
	if i > 0 {
		ts = ts[i:]
		if len(ts) == 0 {
			delete(l.entries, key)
		} else {
			l.entries[key] = ts
		}
	}
	return ts
}

// cleanupLoop periodically removes quiet keys to prevent memory leaks.
func (l *slidingLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for key := range l.entries {
				l.prune(key, now)
			}
			l.mu.Unlock()
		}
	}
}

// stop terminates the cleanup loop. Safe to call more than once.
func (l *slidingLimiter) stop() {
	l.once.Do(func() { close(l.done) })
}
