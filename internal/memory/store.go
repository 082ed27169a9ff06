package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/goldenfocus/vibelog-assistant/internal/embedding"
	"github.com/goldenfocus/vibelog-assistant/internal/model"
	"github.com/goldenfocus/vibelog-assistant/pkg/logger"
)

// loadWindow bounds how many rows one user's retrieval scans. Ranking
// happens in process, so the scan must stay small.
const loadWindow = 500

// Store persists and retrieves per-user memories.
type Store struct {
	db       *gorm.DB
	embedder embedding.Embedder
	logger   *logger.Logger
}

// NewStore creates a memory store.
func NewStore(db *gorm.DB, embedder embedding.Embedder, log *logger.Logger) *Store {
	return &Store{db: db, embedder: embedder, logger: log}
}

// Save embeds and persists one fact. An embedding failure degrades to
// storing the fact without a vector: it stays visible to GetAll but is
// skipped by semantic retrieval.
func (s *Store) Save(ctx context.Context, userID, fact, category string, importance float64, expiresAt *time.Time) (*model.Memory, error) {
	mem := &model.Memory{
		ID:         uuid.Must(uuid.NewV7()).String(),
		UserID:     userID,
		Fact:       fact,
		Category:   category,
		Importance: importance,
		ExpiresAt:  expiresAt,
		CreatedAt:  time.Now(),
	}

	if vec, err := s.embedder.Embed(ctx, fact); err != nil {
		s.logger.Warn("memory embedding failed, storing without vector",
			zap.String("user_id", userID), zap.Error(err))
	} else if raw, err := json.Marshal(vec); err == nil {
		mem.Embedding = raw
	}

	if err := s.db.WithContext(ctx).Create(mem).Error; err != nil {
		return nil, fmt.Errorf("failed to save memory: %w", err)
	}
	return mem, nil
}

// Retrieve returns the user's memories most similar to the query.
// The query embedding is required; its failure fails the call.
func (s *Store) Retrieve(ctx context.Context, userID, query string, limit int) ([]model.Memory, error) {
	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	memories, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	memories = FilterExpired(memories, time.Now())
	return RankBySimilarity(memories, queryVector, limit), nil
}

// GetAll returns the user's memories ranked by importance, hiding
// expired rows. Used for the "what I remember about this user" block.
func (s *Store) GetAll(ctx context.Context, userID string, limit int) ([]model.Memory, error) {
	memories, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	memories = FilterExpired(memories, time.Now())
	return RankByImportance(memories, limit), nil
}

// Delete removes one memory, scoped to its owner.
func (s *Store) Delete(ctx context.Context, memoryID, userID string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", memoryID, userID).Delete(&model.Memory{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete memory: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearAll removes every memory belonging to a user.
func (s *Store) ClearAll(ctx context.Context, userID string) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Memory{}).Error; err != nil {
		return fmt.Errorf("failed to clear memories: %w", err)
	}
	return nil
}

// ExtractFromTurn runs the pattern extractor over a completed turn and
// stores each match. Best effort: individual save failures are logged
// and do not abort the rest of the batch.
func (s *Store) ExtractFromTurn(ctx context.Context, userID, userMessage, assistantMessage string) int {
	stored := 0
	for _, fact := range ExtractFacts(userMessage) {
		if _, err := s.Save(ctx, userID, fact.Text, fact.Category, ExtractedImportance, nil); err != nil {
			s.logger.Warn("failed to store extracted memory",
				zap.String("user_id", userID), zap.String("category", fact.Category), zap.Error(err))
			continue
		}
		stored++
	}
	return stored
}

func (s *Store) load(ctx context.Context, userID string) ([]model.Memory, error) {
	var memories []model.Memory
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(loadWindow).
		Find(&memories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load memories: %w", err)
	}
	return memories, nil
}
