package memory

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldenfocus/vibelog-assistant/internal/model"
)

func embJSON(t *testing.T, v []float32) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestFilterExpired(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	memories := []model.Memory{
		{ID: "keep-no-expiry"},
		{ID: "keep-future", ExpiresAt: &future},
		{ID: "drop-past", ExpiresAt: &past},
	}

	out := FilterExpired(memories, now)
	require.Len(t, out, 2)
	assert.Equal(t, "keep-no-expiry", out[0].ID)
	assert.Equal(t, "keep-future", out[1].ID)
}

func TestRankByImportance(t *testing.T) {
	older := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	memories := []model.Memory{
		{ID: "low", Importance: 0.3, CreatedAt: newer},
		{ID: "high", Importance: 0.9, CreatedAt: older},
		{ID: "mid-old", Importance: 0.6, CreatedAt: older},
		{ID: "mid-new", Importance: 0.6, CreatedAt: newer},
	}

	out := RankByImportance(memories, 3)
	require.Len(t, out, 3)
	assert.Equal(t, "high", out[0].ID)
	// Equal importance resolves to the more recent memory.
	assert.Equal(t, "mid-new", out[1].ID)
	assert.Equal(t, "mid-old", out[2].ID)
}

func TestRankBySimilarity(t *testing.T) {
	memories := []model.Memory{
		{ID: "orthogonal", Embedding: embJSON(t, []float32{0, 1, 0})},
		{ID: "aligned", Embedding: embJSON(t, []float32{1, 0, 0})},
		{ID: "close", Embedding: embJSON(t, []float32{0.9, 0.1, 0})},
		{ID: "no-vector"},
	}

	out := RankBySimilarity(memories, []float32{1, 0, 0}, 10)
	require.Len(t, out, 3)
	assert.Equal(t, "aligned", out[0].ID)
	assert.Equal(t, "close", out[1].ID)
	assert.Equal(t, "orthogonal", out[2].ID)
}

func TestRankBySimilarityLimit(t *testing.T) {
	memories := []model.Memory{
		{ID: "a", Embedding: embJSON(t, []float32{1, 0})},
		{ID: "b", Embedding: embJSON(t, []float32{0.5, 0.5})},
		{ID: "c", Embedding: embJSON(t, []float32{0, 1})},
	}

	out := RankBySimilarity(memories, []float32{1, 0}, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
}

func TestRankBySimilaritySkipsCorruptEmbedding(t *testing.T) {
	memories := []model.Memory{
		{ID: "ok", Embedding: embJSON(t, []float32{1, 0})},
		{ID: "corrupt", Embedding: []byte("not json")},
		{ID: "empty", Embedding: embJSON(t, []float32{})},
	}

	out := RankBySimilarity(memories, []float32{1, 0}, 10)
	require.Len(t, out, 1)
	assert.Equal(t, "ok", out[0].ID)
}
