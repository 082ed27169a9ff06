// Package conversation persists assistant conversations and their
// append-only message history.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/goldenfocus/vibelog-assistant/internal/model"
	"github.com/goldenfocus/vibelog-assistant/pkg/logger"
	"github.com/goldenfocus/vibelog-assistant/pkg/metrics"
)

// ErrNotFound is returned when a conversation does not exist or is not
// owned by the requesting user.
var ErrNotFound = errors.New("conversation not found")

// Store handles conversation persistence.
type Store struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewStore creates a conversation store.
func NewStore(db *gorm.DB, log *logger.Logger) *Store {
	return &Store{db: db, logger: log}
}

// Resolve returns the conversation for (id, owner), creating a new one
// when id is empty. A non-empty id that does not match an owned
// conversation is an error rather than a silent new thread.
func (s *Store) Resolve(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	if conversationID == "" {
		now := time.Now()
		conv := &model.Conversation{
			ID:        uuid.Must(uuid.NewV7()).String(),
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.db.WithContext(ctx).Create(conv).Error; err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		metrics.ConversationsTotal.Inc()
		return conv, nil
	}

	var conv model.Conversation
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", conversationID, userID).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return &conv, nil
}

// AppendTurn writes the user and assistant messages for one completed
// turn and bumps the conversation counters.
func (s *Store) AppendTurn(ctx context.Context, conv *model.Conversation, userMsg, assistantMsg *model.Message) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(userMsg).Error; err != nil {
			return err
		}
		if err := tx.Create(assistantMsg).Error; err != nil {
			return err
		}
		return tx.Model(&model.Conversation{}).
			Where("id = ?", conv.ID).
			Updates(map[string]interface{}{
				"message_count": gorm.Expr("message_count + 2"),
				"updated_at":    time.Now(),
			}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}

	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser)).Inc()
	metrics.MessagesTotal.WithLabelValues(string(model.RoleAssistant)).Inc()
	return nil
}

// History returns the last limit messages of a conversation in
// chronological order.
func (s *Store) History(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	var messages []model.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// List returns a user's conversations, most recently updated first.
func (s *Store) List(ctx context.Context, userID string, limit, offset int) (*model.ListConversationsResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var total int64
	db := s.db.WithContext(ctx).Model(&model.Conversation{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count conversations: %w", err)
	}

	var convs []model.Conversation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	return &model.ListConversationsResponse{
		Conversations: convs,
		Total:         total,
		HasMore:       int64(offset+len(convs)) < total,
	}, nil
}

// Messages returns a page of messages for an owned conversation.
func (s *Store) Messages(ctx context.Context, userID, conversationID string, limit int) (*model.ListMessagesResponse, error) {
	if _, err := s.Resolve(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	messages, err := s.History(ctx, conversationID, limit)
	if err != nil {
		return nil, err
	}
	return &model.ListMessagesResponse{
		Messages: messages,
		HasMore:  len(messages) == limit,
	}, nil
}

// SetTitle updates a conversation title.
func (s *Store) SetTitle(ctx context.Context, conversationID, title string) error {
	return s.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("id = ?", conversationID).
		Update("title", title).Error
}
