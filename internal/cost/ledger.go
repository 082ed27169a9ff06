// Package cost tracks LLM spend and enforces the daily ceiling.
package cost

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Ledger accumulates dollar spend per UTC day. Implementations must be
// monotonic within a day: totals never decrease before the reset window.
type Ledger interface {
	// Add records spend for the given day and returns the new total.
	Add(ctx context.Context, day string, dollars float64) (float64, error)

	// Total returns the accumulated spend for the given day.
	Total(ctx context.Context, day string) (float64, error)
}

// DayKey formats a timestamp as the ledger day bucket.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ledgerTTL keeps yesterday's bucket around for the summary job.
const ledgerTTL = 48 * time.Hour

// RedisLedger stores daily spend in Redis so the ceiling holds across
// replicas.
type RedisLedger struct {
	client *redis.Client
}

// NewRedisLedger creates a Redis-backed ledger.
func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func spendKey(day string) string {
	return "assistant:spend:" + day
}

// Add atomically increments the day's spend.
func (l *RedisLedger) Add(ctx context.Context, day string, dollars float64) (float64, error) {
	key := spendKey(day)
	total, err := l.client.IncrByFloat(ctx, key, dollars).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to record spend: %w", err)
	}
	// Best effort; a missing TTL only delays cleanup.
	l.client.Expire(ctx, key, ledgerTTL)
	return total, nil
}

// Total reads the day's spend. A missing key means zero spend.
func (l *RedisLedger) Total(ctx context.Context, day string) (float64, error) {
	total, err := l.client.Get(ctx, spendKey(day)).Float64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read spend: %w", err)
	}
	return total, nil
}

// MemLedger is an in-process ledger for tests and single-node dev mode.
type MemLedger struct {
	mu     sync.Mutex
	totals map[string]float64
}

// NewMemLedger creates an empty in-memory ledger.
func NewMemLedger() *MemLedger {
	return &MemLedger{totals: make(map[string]float64)}
}

// Add increments the day's spend.
func (l *MemLedger) Add(ctx context.Context, day string, dollars float64) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.totals[day] += dollars
	return l.totals[day], nil
}

// Total reads the day's spend.
func (l *MemLedger) Total(ctx context.Context, day string) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totals[day], nil
}
