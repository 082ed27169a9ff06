package vector

import (
	"context"
	"fmt"
	"time"

	"github.com/goldenfocus/vibelog-assistant/internal/embedding"
)

// Indexer turns platform content into index documents: truncate,
// embed, upsert. The platform's CRUD layer calls this through the
// reindex hook whenever vibelogs, comments, or profiles change.
type Indexer struct {
	embedder embedding.Embedder
	store    Store
}

// NewIndexer creates a content indexer.
func NewIndexer(embedder embedding.Embedder, store Store) *Indexer {
	return &Indexer{embedder: embedder, store: store}
}

// IndexContent embeds one content item and upserts it into the index,
// replacing any previous embedding for the same (type, id).
func (ix *Indexer) IndexContent(ctx context.Context, contentType, contentID, userID, text string, metadata map[string]string) error {
	text = embedding.Truncate(text, embedding.MaxInputChars)

	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed content: %w", err)
	}

	err = ix.store.Upsert(ctx, Document{
		ContentType: contentType,
		ContentID:   contentID,
		UserID:      userID,
		Chunk:       text,
		Metadata:    metadata,
		Embedding:   vec,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	return nil
}

// Remove drops a content item from the index, for deletes and
// unpublishes.
func (ix *Indexer) Remove(ctx context.Context, contentType, contentID string) error {
	return ix.store.Delete(ctx, contentType, contentID)
}
