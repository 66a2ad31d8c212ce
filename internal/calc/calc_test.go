package calc

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/imocalc/imocalc/internal/rates"
)

// fixedYear is the pinned "current year" used across engine tests so
// capital-gains holding periods are deterministic.
const fixedYear = 2025

func fixedNow() time.Time {
	return time.Date(fixedYear, time.June, 15, 12, 0, 0, 0, time.UTC)
}

func testTable(t *testing.T) *rates.Table {
	t.Helper()
	table, err := rates.Load()
	require.NoError(t, err)
	return table
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(testTable(t), WithEngineNow(fixedNow))
}

func testValidator(t *testing.T) *Validator {
	t.Helper()
	return NewValidator(testTable(t), WithValidatorNow(fixedNow))
}

// dec builds an optional decimal from a string literal.
func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got),
		"want %s, got %s (%v)", want, got, msgAndArgs)
}
