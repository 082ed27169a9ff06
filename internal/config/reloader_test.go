package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReloaderCurrent(t *testing.T) {
	initial := &Config{AgentModel: "gpt-4o-mini", MaxIterations: 3}
	r := NewReloader(initial)

	assert.Same(t, initial, r.Current())
}

func TestReloaderSwapVisible(t *testing.T) {
	r := NewReloader(&Config{MaxIterations: 3})

	updated := &Config{MaxIterations: 5}
	r.Swap(updated)

	assert.Same(t, updated, r.Current())
	assert.Equal(t, 5, r.Current().MaxIterations)
}

func TestReloaderConcurrentReads(t *testing.T) {
	r := NewReloader(&Config{MaxIterations: 3})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			r.Swap(&Config{MaxIterations: i})
		}
	}()

	for i := 0; i < 1000; i++ {
		cfg := r.Current()
		require.NotNil(t, cfg)
		require.GreaterOrEqual(t, cfg.MaxIterations, 0)
	}
	<-done
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 3, cfg.MaxIterations)
	assert.Equal(t, 10, cfg.HistoryWindow)
	assert.Equal(t, "gpt-4o-mini", cfg.AgentModel)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, 1536, cfg.EmbeddingDim)
	assert.InDelta(t, 50.0, cfg.DailyCostLimit, 1e-9)
	assert.InDelta(t, 0.6, float64(cfg.SearchThreshold), 1e-6)
	assert.True(t, cfg.AnonymousAllowed)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("AGENT_MAX_ITERATIONS", "5")
	t.Setenv("DAILY_COST_LIMIT_USD", "12.5")
	t.Setenv("ANONYMOUS_ALLOWED", "false")

	cfg := Load()
	assert.Equal(t, 5, cfg.MaxIterations)
	assert.InDelta(t, 12.5, cfg.DailyCostLimit, 1e-9)
	assert.False(t, cfg.AnonymousAllowed)
}
