package cost

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldenfocus/vibelog-assistant/internal/model"
	"github.com/goldenfocus/vibelog-assistant/pkg/logger"
)

func testGovernor(t *testing.T, limit float64) (*Governor, *MemLedger) {
	t.Helper()
	log, err := logger.New("error")
	require.NoError(t, err)
	ledger := NewMemLedger()
	return NewGovernor(ledger, limit, log), ledger
}

func TestPrice(t *testing.T) {
	// gpt-4o-mini: $0.15/M in, $0.60/M out.
	got := Price("gpt-4o-mini", 1_000_000, 1_000_000)
	assert.InDelta(t, 0.75, got, 1e-9)

	// Unknown models fall back to conservative pricing, never zero.
	assert.Greater(t, Price("some-future-model", 1000, 1000), 0.0)

	assert.Zero(t, Price("gpt-4o-mini", 0, 0))
}

func TestGovernorRecordAccumulates(t *testing.T) {
	g, ledger := testGovernor(t, 10.0)
	ctx := context.Background()

	assert.True(t, g.Record(ctx, model.CostEntry{Model: "gpt-4o-mini", CostUSD: 4.0}))
	assert.True(t, g.Record(ctx, model.CostEntry{Model: "gpt-4o-mini", CostUSD: 5.0}))
	assert.False(t, g.Record(ctx, model.CostEntry{Model: "gpt-4o-mini", CostUSD: 2.0}))

	total, err := ledger.Total(ctx, DayKey(time.Now()))
	require.NoError(t, err)
	assert.InDelta(t, 11.0, total, 1e-9)
}

func TestGovernorLimitLatchesUntilNextDay(t *testing.T) {
	g, _ := testGovernor(t, 1.0)
	ctx := context.Background()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	assert.False(t, g.LimitExceeded(ctx))
	g.Record(ctx, model.CostEntry{Model: "gpt-4o", CostUSD: 1.5})
	assert.True(t, g.LimitExceeded(ctx))

	// Still latched later the same day.
	now = now.Add(6 * time.Hour)
	assert.True(t, g.LimitExceeded(ctx))

	// A new UTC day opens a fresh bucket.
	now = now.Add(12 * time.Hour)
	assert.False(t, g.LimitExceeded(ctx))
}

func TestGovernorExactLimitBlocks(t *testing.T) {
	g, _ := testGovernor(t, 2.0)
	ctx := context.Background()

	g.Record(ctx, model.CostEntry{Model: "gpt-4o", CostUSD: 2.0})
	assert.True(t, g.LimitExceeded(ctx))
}

func TestDayKeyIsUTC(t *testing.T) {
	east := time.FixedZone("UTC+9", 9*3600)
	// 2026-08-30 02:00 +09:00 is still 2026-08-29 in UTC.
	assert.Equal(t, "2026-08-29", DayKey(time.Date(2026, 8, 30, 2, 0, 0, 0, east)))
}

func TestMemLedgerMonotonic(t *testing.T) {
	ledger := NewMemLedger()
	ctx := context.Background()

	var last float64
	for i := 0; i < 20; i++ {
		total, err := ledger.Add(ctx, "2026-08-30", 0.05)
		require.NoError(t, err)
		assert.Greater(t, total, last)
		last = total
	}

	total, err := ledger.Total(ctx, "2026-08-30")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, total, 1e-9)

	// Other days are untouched.
	other, err := ledger.Total(ctx, "2026-08-29")
	require.NoError(t, err)
	assert.Zero(t, other)
}
