// Package repository contains the Postgres data access layer.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageStore is a quota.CounterStore backed by Postgres, for deployments
// that want counters to survive restarts. The conditional upsert makes the
// check-and-increment a single atomic statement.
type UsageStore struct {
	pool *pgxpool.Pool
}

// NewUsageStore creates a UsageStore over an existing connection pool.
func NewUsageStore(pool *pgxpool.Pool) *UsageStore {
	return &UsageStore{pool: pool}
}

// Get returns the current count for the key on the given day.
func (s *UsageStore) Get(ctx context.Context, key, day string) (int64, error) {
	var used int64
	err := s.pool.QueryRow(ctx,
		`SELECT used FROM usage_counters WHERE caller_key = $1 AND day = $2::date`,
		key, day,
	).Scan(&used)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select usage counter: %w", err)
	}
	return used, nil
}

// IncrementIfAllowed atomically increments the counter when below limit.
// The guarded upsert returns no row when the counter is already at the
// limit, which reads back the untouched count.
func (s *UsageStore) IncrementIfAllowed(ctx context.Context, key, day string, limit int64) (int64, bool, error) {
	if limit < 0 {
		var used int64
		err := s.pool.QueryRow(ctx, `
			INSERT INTO usage_counters (caller_key, day, used)
			VALUES ($1, $2::date, 1)
			ON CONFLICT (caller_key, day)
			DO UPDATE SET used = usage_counters.used + 1, updated_at = now()
			RETURNING used`,
			key, day,
		).Scan(&used)
		if err != nil {
			return 0, false, fmt.Errorf("increment usage counter: %w", err)
		}
		return used, true, nil
	}

	var used int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO usage_counters (caller_key, day, used)
		VALUES ($1, $2::date, 1)
		ON CONFLICT (caller_key, day)
		DO UPDATE SET used = usage_counters.used + 1, updated_at = now()
		WHERE usage_counters.used < $3
		RETURNING used`,
		key, day, limit,
	).Scan(&used)
	if errors.Is(err, pgx.ErrNoRows) {
		used, err = s.Get(ctx, key, day)
		if err != nil {
			return 0, false, err
		}
		return used, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("increment usage counter: %w", err)
	}
	return used, true, nil
}

// Reset deletes the counter for the key on the given day.
func (s *UsageStore) Reset(ctx context.Context, key, day string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM usage_counters WHERE caller_key = $1 AND day = $2::date`,
		key, day,
	)
	if err != nil {
		return fmt.Errorf("reset usage counter: %w", err)
	}
	return nil
}

// DeleteBefore removes counters for days strictly before the given day.
func (s *UsageStore) DeleteBefore(ctx context.Context, day string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM usage_counters WHERE day < $1::date`,
		day,
	)
	if err != nil {
		return 0, fmt.Errorf("sweep usage counters: %w", err)
	}
	return tag.RowsAffected(), nil
}
