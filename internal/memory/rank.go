package memory

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/goldenfocus/vibelog-assistant/internal/model"
	"github.com/goldenfocus/vibelog-assistant/internal/vector"
)

// FilterExpired drops memories whose expiry is in the past. Expired
// rows stay in storage; they are only hidden from retrieval.
func FilterExpired(memories []model.Memory, now time.Time) []model.Memory {
	out := memories[:0:0]
	for _, m := range memories {
		if !m.Expired(now) {
			out = append(out, m)
		}
	}
	return out
}

// RankByImportance orders memories by importance descending, then by
// recency, and truncates to limit.
func RankByImportance(memories []model.Memory, limit int) []model.Memory {
	sort.SliceStable(memories, func(i, j int) bool {
		if memories[i].Importance != memories[j].Importance {
			return memories[i].Importance > memories[j].Importance
		}
		return memories[i].CreatedAt.After(memories[j].CreatedAt)
	})
	if limit > 0 && len(memories) > limit {
		memories = memories[:limit]
	}
	return memories
}

// RankBySimilarity orders memories by cosine similarity to the query
// vector and truncates to limit. Memories without a stored embedding
// are skipped.
func RankBySimilarity(memories []model.Memory, queryVector []float32, limit int) []model.Memory {
	type scored struct {
		mem model.Memory
		sim float32
	}
	var ranked []scored
	for _, m := range memories {
		emb := decodeEmbedding(m.Embedding)
		if emb == nil {
			continue
		}
		ranked = append(ranked, scored{mem: m, sim: vector.Cosine(queryVector, emb)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].sim > ranked[j].sim
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]model.Memory, len(ranked))
	for i, r := range ranked {
		out[i] = r.mem
	}
	return out
}

func decodeEmbedding(raw []byte) []float32 {
	if len(raw) == 0 {
		return nil
	}
	var emb []float32
	if err := json.Unmarshal(raw, &emb); err != nil || len(emb) == 0 {
		return nil
	}
	return emb
}
