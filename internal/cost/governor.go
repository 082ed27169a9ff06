package cost

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/goldenfocus/vibelog-assistant/internal/model"
	"github.com/goldenfocus/vibelog-assistant/pkg/logger"
	"github.com/goldenfocus/vibelog-assistant/pkg/metrics"
)

// ErrDailyLimitExceeded signals that the daily spend ceiling has been
// reached. It must surface to callers as a distinct "assistant paused"
// condition, never a generic failure.
var ErrDailyLimitExceeded = errors.New("daily cost limit exceeded, assistant temporarily paused")

// modelPricing is dollars per million tokens (input, output).
type modelPricing struct {
	inputPerM  float64
	outputPerM float64
}

var pricing = map[string]modelPricing{
	"gpt-4o":                     {2.50, 10.00},
	"gpt-4o-mini":                {0.15, 0.60},
	"gpt-4-turbo":                {10.00, 30.00},
	"gpt-3.5-turbo":              {0.50, 1.50},
	"claude-3-5-sonnet-20241022": {3.00, 15.00},
	"claude-3-5-haiku-20241022":  {0.80, 4.00},
	"claude-3-haiku-20240307":    {0.25, 1.25},
	"text-embedding-3-small":     {0.02, 0},
}

// defaultPricing is applied to unknown models so spend is never
// undercounted to zero.
var defaultPricing = modelPricing{5.00, 15.00}

// Price computes the dollar cost of a call from its token counts.
func Price(modelName string, tokensIn, tokensOut int) float64 {
	p, ok := pricing[modelName]
	if !ok {
		p = defaultPricing
	}
	return float64(tokensIn)/1e6*p.inputPerM + float64(tokensOut)/1e6*p.outputPerM
}

// Governor wraps the ledger with the daily ceiling. The limit is
// checked before any LLM call (early breaker) and again on each record
// (mid-request breaker, since one expensive call can cross the line).
type Governor struct {
	ledger Ledger
	limit  float64
	logger *logger.Logger
	now    func() time.Time
}

// NewGovernor creates a governor with the given daily dollar ceiling.
func NewGovernor(ledger Ledger, dailyLimitUSD float64, log *logger.Logger) *Governor {
	return &Governor{ledger: ledger, limit: dailyLimitUSD, logger: log, now: time.Now}
}

// Record appends a cost entry and reports whether further calls are
// still allowed today. A ledger failure is logged and treated as
// allowed: losing one accounting write must not take the assistant down.
func (g *Governor) Record(ctx context.Context, entry model.CostEntry) bool {
	day := DayKey(g.now())
	total, err := g.ledger.Add(ctx, day, entry.CostUSD)
	if err != nil {
		g.logger.Error("failed to record cost", zap.Error(err))
		return true
	}

	metrics.RecordCost(entry.Model, entry.CostUSD)
	g.logger.Info("recorded llm cost",
		zap.String("user_id", entry.UserID),
		zap.String("model", entry.Model),
		zap.Float64("cost_usd", entry.CostUSD),
		zap.Float64("daily_total_usd", total),
	)

	return total < g.limit
}

// LimitExceeded reports whether today's spend has reached the ceiling.
func (g *Governor) LimitExceeded(ctx context.Context) bool {
	day := DayKey(g.now())
	total, err := g.ledger.Total(ctx, day)
	if err != nil {
		g.logger.Error("failed to read cost ledger", zap.Error(err))
		return false
	}
	return total >= g.limit
}

// DailyTotal returns spend for an arbitrary day, used by the summary job.
func (g *Governor) DailyTotal(ctx context.Context, t time.Time) (float64, error) {
	return g.ledger.Total(ctx, DayKey(t))
}
