// Package vector provides the semantic content index: embedding
// storage keyed by (content type, content id) and threshold-filtered
// nearest-neighbor search.
package vector

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"
)

// ErrNotFound is returned when a lookup matches no stored document.
var ErrNotFound = errors.New("vector: not found")

// Document is one embedded content item. ContentID is empty for
// documentation chunks; UserID is empty for unowned content.
type Document struct {
	ContentType string
	ContentID   string
	UserID      string
	Chunk       string
	Metadata    map[string]string
	Embedding   []float32
	UpdatedAt   time.Time
}

// Hit is a search result with its cosine similarity.
type Hit struct {
	Document
	Similarity float32
}

// Store is the semantic index contract. Upsert overwrites any existing
// row for the same (content type, content id) pair.
type Store interface {
	Upsert(ctx context.Context, doc Document) error
	Search(ctx context.Context, queryVector []float32, contentTypes []string, topK int, minSimilarity float32) ([]Hit, error)
	Delete(ctx context.Context, contentType, contentID string) error
}

// Cosine computes cosine similarity between two vectors. Returns 0 for
// mismatched or zero-magnitude inputs.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// sortHits orders hits by similarity descending, ties broken by the
// most recently updated document.
func sortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].UpdatedAt.After(hits[j].UpdatedAt)
	})
}
