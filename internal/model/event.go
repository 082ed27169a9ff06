package model

import (
	"time"
)

// TurnEvent is published to the turn stream after an assistant turn
// completes. The memory extraction worker consumes it; the publishing
// side never waits on delivery.
type TurnEvent struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	ConversationID   string    `json:"conversation_id"`
	UserMessage      string    `json:"user_message"`
	AssistantMessage string    `json:"assistant_message"`
	CreatedAt        time.Time `json:"created_at"`
}
