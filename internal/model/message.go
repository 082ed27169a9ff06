package model

import (
	"time"

	"gorm.io/datatypes"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// SourceType identifies the kind of content a citation points at.
type SourceType string

const (
	SourceVibelog SourceType = "vibelog"
	SourceComment SourceType = "comment"
	SourceProfile SourceType = "profile"
)

// Source is a lightweight citation attached to an assistant message.
// It has no lifecycle of its own; it is embedded in the message row.
type Source struct {
	Type      SourceType `json:"type"`
	ContentID string     `json:"content_id"`
	Title     string     `json:"title,omitempty"`
	Username  string     `json:"username,omitempty"`
	Snippet   string     `json:"snippet,omitempty"`
}

// Message represents one turn half in a conversation. Messages are
// append-only and immutable once written.
type Message struct {
	ID             string         `json:"id" gorm:"primaryKey;size:36"`
	ConversationID string         `json:"conversation_id" gorm:"size:36;index:idx_conv_created,priority:1"`
	Role           Role           `json:"role" gorm:"size:16"`
	Content        string         `json:"content" gorm:"type:text"`
	Sources        datatypes.JSON `json:"sources,omitempty"`
	TokensUsed     int            `json:"tokens_used"`
	CreatedAt      time.Time      `json:"created_at" gorm:"index:idx_conv_created,priority:2"`
}

// TableName maps Message to its table.
func (Message) TableName() string { return "assistant_messages" }

// ChatRequest is the inbound chat payload.
type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// ChatResponse is what the surrounding application receives for a turn.
type ChatResponse struct {
	ConversationID string   `json:"conversation_id"`
	Message        string   `json:"message"`
	Sources        []Source `json:"sources,omitempty"`
	TokensUsed     int      `json:"tokens_used"`
}

// ListMessagesResponse is the response for listing conversation messages.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}
