package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/goldenfocus/vibelog-assistant/pkg/metrics"
)

const (
	fieldID          = "id"
	fieldContentType = "content_type"
	fieldContentID   = "content_id"
	fieldUserID      = "user_id"
	fieldChunk       = "chunk"
	fieldMetadata    = "metadata"
	fieldUpdatedAt   = "updated_at"
	fieldEmbedding   = "embedding"
)

// MilvusStore is the Milvus-backed semantic index.
type MilvusStore struct {
	client   client.Client
	collName string
	dim      int
}

// NewMilvusStore connects to Milvus and ensures the collection exists.
func NewMilvusStore(ctx context.Context, address, collName string, dim int) (*MilvusStore, error) {
	c, err := client.NewClient(ctx, client.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Milvus: %w", err)
	}

	s := &MilvusStore{client: c, collName: collName, dim: dim}
	if err := s.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the Milvus connection.
func (s *MilvusStore) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *MilvusStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.HasCollection(ctx, s.collName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if !exists {
		schema := entity.NewSchema().
			WithName(s.collName).
			WithDescription("per-content embeddings for semantic search").
			WithField(entity.NewField().WithName(fieldID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(64).WithIsPrimaryKey(true)).
			WithField(entity.NewField().WithName(fieldContentType).WithDataType(entity.FieldTypeVarChar).WithMaxLength(32)).
			WithField(entity.NewField().WithName(fieldContentID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(64)).
			WithField(entity.NewField().WithName(fieldUserID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(64)).
			WithField(entity.NewField().WithName(fieldChunk).WithDataType(entity.FieldTypeVarChar).WithMaxLength(4096)).
			WithField(entity.NewField().WithName(fieldMetadata).WithDataType(entity.FieldTypeVarChar).WithMaxLength(4096)).
			WithField(entity.NewField().WithName(fieldUpdatedAt).WithDataType(entity.FieldTypeInt64)).
			WithField(entity.NewField().WithName(fieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.dim)))

		if err := s.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		idx, err := entity.NewIndexHNSW(entity.COSINE, 8, 96)
		if err != nil {
			return fmt.Errorf("failed to build index: %w", err)
		}
		if err := s.client.CreateIndex(ctx, s.collName, fieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := s.client.LoadCollection(ctx, s.collName, false); err != nil {
		return fmt.Errorf("failed to load collection %q: %w", s.collName, err)
	}
	return nil
}

// Upsert replaces any existing row for (content type, content id) with
// the given document. Milvus has no native upsert for this key shape,
// so it is a delete-by-expression followed by an insert.
func (s *MilvusStore) Upsert(ctx context.Context, doc Document) error {
	expr := fmt.Sprintf("%s == %q && %s == %q", fieldContentType, doc.ContentType, fieldContentID, doc.ContentID)
	if err := s.client.Delete(ctx, s.collName, "", expr); err != nil {
		return fmt.Errorf("failed to delete stale embedding: %w", err)
	}

	meta := "{}"
	if doc.Metadata != nil {
		raw, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		meta = string(raw)
	}

	updatedAt := doc.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.client.Insert(ctx, s.collName, "",
		entity.NewColumnVarChar(fieldID, []string{uuid.Must(uuid.NewV7()).String()}),
		entity.NewColumnVarChar(fieldContentType, []string{doc.ContentType}),
		entity.NewColumnVarChar(fieldContentID, []string{doc.ContentID}),
		entity.NewColumnVarChar(fieldUserID, []string{doc.UserID}),
		entity.NewColumnVarChar(fieldChunk, []string{doc.Chunk}),
		entity.NewColumnVarChar(fieldMetadata, []string{meta}),
		entity.NewColumnInt64(fieldUpdatedAt, []int64{updatedAt.Unix()}),
		entity.NewColumnFloatVector(fieldEmbedding, s.dim, [][]float32{doc.Embedding}),
	)
	if err != nil {
		return fmt.Errorf("failed to insert embedding: %w", err)
	}
	return nil
}

// Search runs one type-filtered similarity query against the index.
func (s *MilvusStore) Search(ctx context.Context, queryVector []float32, contentTypes []string, topK int, minSimilarity float32) ([]Hit, error) {
	start := time.Now()

	expr := ""
	if len(contentTypes) > 0 {
		quoted := make([]string, len(contentTypes))
		for i, t := range contentTypes {
			quoted[i] = fmt.Sprintf("%q", t)
		}
		expr = fmt.Sprintf("%s in [%s]", fieldContentType, strings.Join(quoted, ", "))
	}

	sp, err := entity.NewIndexHNSWSearchParam(64)
	if err != nil {
		return nil, fmt.Errorf("failed to build search param: %w", err)
	}

	results, err := s.client.Search(ctx, s.collName, nil, expr,
		[]string{fieldContentType, fieldContentID, fieldUserID, fieldChunk, fieldMetadata, fieldUpdatedAt},
		[]entity.Vector{entity.FloatVector(queryVector)},
		fieldEmbedding, entity.COSINE, topK, sp,
	)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	var hits []Hit
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			sim := result.Scores[i]
			if sim < minSimilarity {
				continue
			}
			hit := Hit{Similarity: sim}
			hit.ContentType, _ = result.Fields.GetColumn(fieldContentType).GetAsString(i)
			hit.ContentID, _ = result.Fields.GetColumn(fieldContentID).GetAsString(i)
			hit.UserID, _ = result.Fields.GetColumn(fieldUserID).GetAsString(i)
			hit.Chunk, _ = result.Fields.GetColumn(fieldChunk).GetAsString(i)
			if raw, err := result.Fields.GetColumn(fieldMetadata).GetAsString(i); err == nil && raw != "" {
				_ = json.Unmarshal([]byte(raw), &hit.Metadata)
			}
			if ts, err := result.Fields.GetColumn(fieldUpdatedAt).GetAsInt64(i); err == nil {
				hit.UpdatedAt = time.Unix(ts, 0)
			}
			hits = append(hits, hit)
		}
	}

	sortHits(hits)
	metrics.VectorSearchDuration.Observe(time.Since(start).Seconds())
	return hits, nil
}

// Delete removes the embedding row for a content item.
func (s *MilvusStore) Delete(ctx context.Context, contentType, contentID string) error {
	expr := fmt.Sprintf("%s == %q && %s == %q", fieldContentType, contentType, fieldContentID, contentID)
	if err := s.client.Delete(ctx, s.collName, "", expr); err != nil {
		return fmt.Errorf("failed to delete embedding: %w", err)
	}
	return nil
}
