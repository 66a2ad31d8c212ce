package quota

import "context"

// CounterStore persists per-caller daily usage counters.
//
// Counters are keyed by (caller key, day). The day string is the caller's
// quota day in Europe/Lisbon, formatted 2006-01-02, so a counter for a past
// day is simply never read again: reset is lazy and the sweep only reclaims
// memory.
type CounterStore interface {
	// Get returns the current count for the key on the given day.
	// A missing counter reads as zero.
	Get(ctx context.Context, key, day string) (int64, error)

	// IncrementIfAllowed atomically increments the counter when it is
	// below limit and reports the resulting count. A negative limit means
	// unmetered: the counter still increments (for usage reporting) and
	// the call is always allowed. When the limit is already reached the
	// counter is left unchanged and allowed is false.
	IncrementIfAllowed(ctx context.Context, key, day string, limit int64) (used int64, allowed bool, err error)

	// Reset deletes the counter for the key on the given day.
	Reset(ctx context.Context, key, day string) error

	// DeleteBefore removes every counter for days strictly before the
	// given day and returns how many were removed.
	DeleteBefore(ctx context.Context, day string) (int64, error)
}
