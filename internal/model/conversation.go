// Package model defines data structures for the assistant core.
package model

import (
	"time"
)

// Conversation represents an assistant conversation thread.
type Conversation struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	UserID       string    `json:"user_id" gorm:"size:36;index"`
	Title        string    `json:"title,omitempty" gorm:"size:256"`
	Summary      string    `json:"summary,omitempty" gorm:"type:text"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"index"`
}

// TableName maps Conversation to its table.
func (Conversation) TableName() string { return "assistant_conversations" }

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int64          `json:"total"`
	HasMore       bool           `json:"has_more"`
}
