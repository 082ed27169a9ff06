package model

import (
	"time"

	"gorm.io/datatypes"
)

// Memory is a durable per-user fact extracted from past turns.
// Expired memories are excluded from retrieval but kept in storage
// until the owner deletes them.
type Memory struct {
	ID         string         `json:"id" gorm:"primaryKey;size:36"`
	UserID     string         `json:"user_id" gorm:"size:36;index"`
	Fact       string         `json:"fact" gorm:"type:text"`
	Category   string         `json:"category" gorm:"size:64"`
	Importance float64        `json:"importance"`
	Embedding  datatypes.JSON `json:"-"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// TableName maps Memory to its table.
func (Memory) TableName() string { return "assistant_memories" }

// Expired reports whether the memory should be hidden from retrieval.
func (m *Memory) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && m.ExpiresAt.Before(now)
}
