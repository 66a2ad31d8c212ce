package quota

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imocalc/imocalc/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEnforcer pins the clock and the timezone so quota days are
// deterministic. The returned setter advances the clock.
func testEnforcer(t *testing.T, store CounterStore) (*enforcer, func(time.Time)) {
	t.Helper()

	now := time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
	e := newEnforcer(store, testLogger(), time.UTC, WithNow(func() time.Time {
		return now
	}))
	t.Cleanup(e.Close)

	return e, func(next time.Time) { now = next }
}

func TestCheckAndConsumeDailyCycle(t *testing.T) {
	ctx := context.Background()
	e, setNow := testEnforcer(t, NewMemoryStore())

	start := time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

	// The free tier allows 5 per day. Space the calls out so the
	// 3-per-minute window never interferes.
	for i := 0; i < 5; i++ {
		setNow(start.Add(time.Duration(i) * 5 * time.Minute))
		d := e.CheckAndConsume(ctx, "user-1", domain.TierFree)
		require.True(t, d.Allowed, "call %d should be within quota", i+1)
		assert.Equal(t, int64(i+1), d.Used)
		assert.Equal(t, int64(4-i), d.Remaining)
	}

	setNow(start.Add(30 * time.Minute))
	d := e.CheckAndConsume(ctx, "user-1", domain.TierFree)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonDailyLimit, d.Reason)
	assert.Equal(t, int64(0), d.Remaining)
	assert.Equal(t, time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC), d.ResetAt)
	assert.Positive(t, d.RetryAfter)

	// Past midnight the counter for the new day starts fresh with no
	// explicit reset.
	setNow(time.Date(2025, time.June, 16, 0, 0, 1, 0, time.UTC))
	d = e.CheckAndConsume(ctx, "user-1", domain.TierFree)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1), d.Used)
	assert.Equal(t, int64(4), d.Remaining)
}

func TestCheckAndConsumeRateWindowPrecedence(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	e, _ := testEnforcer(t, store)

	// Free tier: 3 per minute. The 4th immediate call trips the window
	// even though daily quota remains.
	for i := 0; i < 3; i++ {
		d := e.CheckAndConsume(ctx, "user-1", domain.TierFree)
		require.True(t, d.Allowed)
	}
	d := e.CheckAndConsume(ctx, "user-1", domain.TierFree)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonRateLimit, d.Reason)
	assert.Positive(t, d.RetryAfter)

	// A rate-limited request must not consume daily quota.
	used, err := store.Get(ctx, "user-1", "2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, int64(3), used)
}

func TestCheckAndConsumeUnlimitedTierStillMetered(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	e, setNow := testEnforcer(t, store)

	start := time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		setNow(start.Add(time.Duration(i) * 2 * time.Minute))
		d := e.CheckAndConsume(ctx, "pro-user", domain.TierPro)
		require.True(t, d.Allowed)
		assert.True(t, d.Unlimited)
		assert.Equal(t, int64(-1), d.Remaining)
	}

	// Usage is still recorded for reporting.
	used, err := store.Get(ctx, "pro-user", "2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, int64(8), used)
}

func TestCheckAndConsumeKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	e, _ := testEnforcer(t, NewMemoryStore())

	for i := 0; i < 3; i++ {
		require.True(t, e.CheckAndConsume(ctx, "user-a", domain.TierFree).Allowed)
	}
	// user-a is now rate limited, user-b is not.
	assert.False(t, e.CheckAndConsume(ctx, "user-a", domain.TierFree).Allowed)
	assert.True(t, e.CheckAndConsume(ctx, "user-b", domain.TierFree).Allowed)
}

// failingStore simulates a broken backend.
type failingStore struct{}

func (failingStore) Get(context.Context, string, string) (int64, error) {
	return 0, errors.New("connection refused")
}
func (failingStore) IncrementIfAllowed(context.Context, string, string, int64) (int64, bool, error) {
	return 0, false, errors.New("connection refused")
}
func (failingStore) Reset(context.Context, string, string) error {
	return errors.New("connection refused")
}
func (failingStore) DeleteBefore(context.Context, string) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestCheckAndConsumeFailsOpen(t *testing.T) {
	ctx := context.Background()
	e, _ := testEnforcer(t, failingStore{})

	d := e.CheckAndConsume(ctx, "user-1", domain.TierFree)
	assert.True(t, d.Allowed, "a broken store must not block callers")
	assert.Equal(t, int64(-1), d.Remaining)
	assert.Empty(t, d.Reason)
}

func TestUsageSnapshot(t *testing.T) {
	ctx := context.Background()
	e, setNow := testEnforcer(t, NewMemoryStore())

	start := time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		setNow(start.Add(time.Duration(i) * time.Minute))
		require.True(t, e.CheckAndConsume(ctx, "user-1", domain.TierFree).Allowed)
	}

	u, err := e.Usage(ctx, "user-1", domain.TierFree)
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.Used)
	assert.Equal(t, int64(5), u.Limit)
	assert.Equal(t, int64(3), u.Remaining)
	assert.False(t, u.Unlimited)
	assert.Equal(t, time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC), u.ResetAt)

	// Unknown caller reads as zero usage.
	u, err = e.Usage(ctx, "never-seen", domain.TierRegistered)
	require.NoError(t, err)
	assert.Equal(t, int64(0), u.Used)
	assert.Equal(t, int64(10), u.Limit)

	pro, err := e.Usage(ctx, "user-1", domain.TierPro)
	require.NoError(t, err)
	assert.True(t, pro.Unlimited)
	assert.Equal(t, int64(-1), pro.Limit)
}

func TestUsageSurfacesStoreErrors(t *testing.T) {
	e, _ := testEnforcer(t, failingStore{})

	_, err := e.Usage(context.Background(), "user-1", domain.TierFree)
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}

func TestSweepRemovesOnlyPastDays(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	e, setNow := testEnforcer(t, store)

	// Build up counters on day one.
	require.True(t, e.CheckAndConsume(ctx, "user-1", domain.TierFree).Allowed)

	// Next day: a fresh counter plus the stale one.
	setNow(time.Date(2025, time.June, 16, 9, 0, 0, 0, time.UTC))
	require.True(t, e.CheckAndConsume(ctx, "user-1", domain.TierFree).Allowed)

	deleted, err := e.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// Today's counter survives the sweep.
	used, err := store.Get(ctx, "user-1", "2025-06-16")
	require.NoError(t, err)
	assert.Equal(t, int64(1), used)
}
