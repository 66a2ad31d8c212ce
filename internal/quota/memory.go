package quota

import (
	"context"
	"sync"
)

// MemoryStore is an in-process CounterStore. It is the default backend for
// single-instance deployments and for tests; counters do not survive a
// restart.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]map[string]int64 // key -> day -> used
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]map[string]int64),
	}
}

// Get returns the current count for the key on the given day.
func (s *MemoryStore) Get(_ context.Context, key, day string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[key][day], nil
}

// IncrementIfAllowed atomically increments the counter when below limit.
func (s *MemoryStore) IncrementIfAllowed(_ context.Context, key, day string, limit int64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, ok := s.counters[key]
	if !ok {
		days = make(map[string]int64)
		s.counters[key] = days
	}

	used := days[day]
	if limit >= 0 && used >= limit {
		return used, false, nil
	}
	used++
	days[day] = used
	return used, true, nil
}

// Reset deletes the counter for the key on the given day.
func (s *MemoryStore) Reset(_ context.Context, key, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if days, ok := s.counters[key]; ok {
		delete(days, day)
		if len(days) == 0 {
			delete(s.counters, key)
		}
	}
	return nil
}

// DeleteBefore removes counters for days strictly before the given day.
// Day strings are ISO dates, so lexical order is chronological order.
func (s *MemoryStore) DeleteBefore(_ context.Context, day string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for key, days := range s.counters {
		for d := range days {
			if d < day {
				delete(days, d)
				removed++
			}
		}
		if len(days) == 0 {
			delete(s.counters, key)
		}
	}
	return removed, nil
}
