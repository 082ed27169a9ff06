package vector

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store used in tests and single-node dev
// mode. Semantics match the Milvus implementation.
type MemStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemStore creates an empty in-memory index.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string]Document)}
}

func docKey(contentType, contentID string) string {
	return contentType + "/" + contentID
}

// Upsert stores or replaces the document for its content key.
func (s *MemStore) Upsert(ctx context.Context, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[docKey(doc.ContentType, doc.ContentID)] = doc
	return nil
}

// Search returns up to topK documents of the allowed types with
// similarity at or above minSimilarity.
func (s *MemStore) Search(ctx context.Context, queryVector []float32, contentTypes []string, topK int, minSimilarity float32) ([]Hit, error) {
	allowed := make(map[string]bool, len(contentTypes))
	for _, t := range contentTypes {
		allowed[t] = true
	}

	s.mu.RLock()
	var hits []Hit
	for _, doc := range s.docs {
		if len(allowed) > 0 && !allowed[doc.ContentType] {
			continue
		}
		sim := Cosine(queryVector, doc.Embedding)
		if sim < minSimilarity {
			continue
		}
		hits = append(hits, Hit{Document: doc, Similarity: sim})
	}
	s.mu.RUnlock()

	sortHits(hits)
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Delete removes the document for the content key.
func (s *MemStore) Delete(ctx context.Context, contentType, contentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := docKey(contentType, contentID)
	if _, ok := s.docs[key]; !ok {
		return ErrNotFound
	}
	delete(s.docs, key)
	return nil
}
