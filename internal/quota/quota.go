// Package quota enforces per-caller usage limits: a daily calculation
// quota per subscription tier plus short sliding-window rate limits.
//
// Daily counters live in a pluggable CounterStore and reset lazily: the
// quota day (Europe/Lisbon) is part of the counter key, so yesterday's
// counter is simply never consulted again. A periodic sweep reclaims the
// stale rows. Rate windows are checked before the daily counter so a
// burst is rejected without consuming quota.
package quota

import (
	"context"
	"log/slog"
	"time"

	"github.com/imocalc/imocalc/internal/domain"
	"github.com/imocalc/imocalc/internal/metrics"
)

// DenialReason says which limit rejected a request.
type DenialReason string

const (
	ReasonDailyLimit DenialReason = "daily_limit"
	ReasonRateLimit  DenialReason = "rate_limit"
)

// Decision is the outcome of a consume attempt.
type Decision struct {
	Allowed   bool
	Unlimited bool

	// Used and Remaining describe the daily counter after the attempt.
	// Remaining is -1 when the tier is unmetered or the store failed.
	Used      int64
	Remaining int64

	// ResetAt is the next quota-day boundary; for rate-limit denials it
	// is when the violated window frees a slot.
	ResetAt time.Time

	// Reason is set only on denials.
	Reason DenialReason

	RetryAfter time.Duration
}

// Usage is a read-only snapshot of a caller's daily quota.
type Usage struct {
	Used      int64     `json:"used"`
	Limit     int64     `json:"limit"` // -1 when unlimited
	Remaining int64     `json:"remaining"`
	Unlimited bool      `json:"unlimited"`
	ResetAt   time.Time `json:"resetAt"`
}

// =============================================================================
// Interface Definition
// =============================================================================

// Enforcer defines quota operations for the calculation endpoints.
type Enforcer interface {
	// CheckAndConsume applies the caller's rate windows and daily quota
	// in that order, consuming one calculation on success. Store
	// failures fail open: the request is allowed and the error is
	// logged and counted, never surfaced.
	CheckAndConsume(ctx context.Context, key string, tier domain.SubscriptionTier) Decision

	// Usage returns the caller's current daily usage without consuming.
	Usage(ctx context.Context, key string, tier domain.SubscriptionTier) (*Usage, error)

	// Sweep removes counters from previous quota days and returns how
	// many were deleted.
	Sweep(ctx context.Context) (int64, error)

	// Close stops the enforcer's background cleanup.
	Close()
}

// =============================================================================
// Implementation
// =============================================================================

type enforcer struct {
	store   CounterStore
	limiter *slidingLimiter
	logger  *slog.Logger
	loc     *time.Location
	now     func() time.Time
}

// Option configures the enforcer.
type Option func(*enforcer)

// WithNow overrides the enforcer clock for tests.
func WithNow(now func() time.Time) Option {
	return func(e *enforcer) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEnforcer creates an Enforcer over the given counter store. The quota
// day follows Europe/Lisbon; if the zoneinfo database is unavailable the
// enforcer falls back to UTC rather than failing startup.
func NewEnforcer(store CounterStore, logger *slog.Logger) Enforcer {
	loc, err := time.LoadLocation("Europe/Lisbon")
	if err != nil {
		logger.Warn("Europe/Lisbon zoneinfo unavailable, quota days use UTC", "error", err)
		loc = time.UTC
	}
	return newEnforcer(store, logger, loc)
}

func newEnforcer(store CounterStore, logger *slog.Logger, loc *time.Location, opts ...Option) *enforcer {
	e := &enforcer{
		store:   store,
		limiter: newSlidingLimiter(),
		logger:  logger,
		loc:     loc,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckAndConsume applies rate windows, then the daily counter.
func (e *enforcer) CheckAndConsume(ctx context.Context, key string, tier domain.SubscriptionTier) Decision {
	const op = "quota.check_and_consume"

	limits := domain.LimitsForTier(tier)
	now := e.now()

	if ok, retryAfter := e.limiter.allow(key, limits.PerMinute, limits.PerHour, now); !ok {
		e.logger.Info("rate limit exceeded",
			"caller", key,
			"tier", tier,
			"retry_after", retryAfter,
		)
		metrics.QuotaDenialsTotal.WithLabelValues(string(ReasonRateLimit)).Inc()
		return Decision{
			Allowed:    false,
			Reason:     ReasonRateLimit,
			ResetAt:    now.Add(retryAfter),
			RetryAfter: retryAfter,
			Remaining:  -1,
		}
	}

	limit := e.dailyLimit(limits)
	used, allowed, err := e.store.IncrementIfAllowed(ctx, key, e.day(now), limit)
	if err != nil {
		// Fail open: a broken usage store must not take the product down.
		e.logger.Error("usage store failure, allowing request",
			"op", op,
			"caller", key,
			"error", err,
		)
		metrics.QuotaStoreErrorsTotal.Inc()
		return Decision{
			Allowed:   true,
			Unlimited: limits.Unlimited,
			Remaining: -1,
			ResetAt:   e.nextReset(now),
		}
	}

	if !allowed {
		e.logger.Info("daily quota exhausted",
			"caller", key,
			"tier", tier,
			"used", used,
			"limit", limit,
		)
		metrics.QuotaDenialsTotal.WithLabelValues(string(ReasonDailyLimit)).Inc()
		resetAt := e.nextReset(now)
		return Decision{
			Allowed:    false,
			Reason:     ReasonDailyLimit,
			Used:       used,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}
	}

	d := Decision{
		Allowed:   true,
		Unlimited: limits.Unlimited,
		Used:      used,
		Remaining: -1,
		ResetAt:   e.nextReset(now),
	}
	if limit >= 0 {
		d.Remaining = limit - used
	}
	return d
}

// Usage returns the caller's current daily usage without consuming.
func (e *enforcer) Usage(ctx context.Context, key string, tier domain.SubscriptionTier) (*Usage, error) {
	const op = "quota.usage"

	limits := domain.LimitsForTier(tier)
	now := e.now()

	used, err := e.store.Get(ctx, key, e.day(now))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to read usage counter")
	}

	u := &Usage{
		Used:      used,
		Limit:     -1,
		Remaining: -1,
		Unlimited: limits.Unlimited,
		ResetAt:   e.nextReset(now),
	}
	if !limits.Unlimited {
		u.Limit = int64(limits.DailyCalculations)
		u.Remaining = u.Limit - used
		if u.Remaining < 0 {
			u.Remaining = 0
		}
	}
	return u, nil
}

// Sweep deletes counters from quota days before today.
func (e *enforcer) Sweep(ctx context.Context) (int64, error) {
	const op = "quota.sweep"

	deleted, err := e.store.DeleteBefore(ctx, e.day(e.now()))
	if err != nil {
		return 0, domain.Internal(err, op, "failed to sweep usage counters")
	}
	if deleted > 0 {
		metrics.QuotaSweepDeletedTotal.Add(float64(deleted))
		e.logger.Info("swept stale usage counters", "deleted", deleted)
	}
	return deleted, nil
}

// Close stops the sliding-window cleanup loop.
func (e *enforcer) Close() {
	e.limiter.stop()
}

// dailyLimit translates tier limits into the store's limit convention.
func (e *enforcer) dailyLimit(limits domain.TierLimits) int64 {
	if limits.Unlimited {
		return -1
	}
	return int64(limits.DailyCalculations)
}

// day formats the quota day for now in the enforcer's timezone.
func (e *enforcer) day(now time.Time) string {
	return now.In(e.loc).Format("2006-01-02")
}

// nextReset is the upcoming midnight in the enforcer's timezone.
func (e *enforcer) nextReset(now time.Time) time.Time {
	local := now.In(e.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.loc).AddDate(0, 0, 1)
}
