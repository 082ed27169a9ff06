package model

import (
	"time"
)

// UserProfile is a read-only projection of a platform user. The
// assistant core never mutates it.
type UserProfile struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Username     string    `json:"username" gorm:"size:64"`
	DisplayName  string    `json:"display_name" gorm:"size:128"`
	Bio          string    `json:"bio" gorm:"type:text"`
	VibelogCount int       `json:"vibelog_count"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName maps UserProfile onto the platform users table.
func (UserProfile) TableName() string { return "users" }

// Vibelog is a read-only projection of a published voice post.
type Vibelog struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	UserID      string     `json:"user_id" gorm:"size:36;index"`
	Title       string     `json:"title" gorm:"size:256"`
	Transcript  string     `json:"transcript" gorm:"type:text"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TableName maps Vibelog onto the platform vibelogs table.
func (Vibelog) TableName() string { return "vibelogs" }

// Comment is a read-only projection of a comment on a vibelog.
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	VibelogID string    `json:"vibelog_id" gorm:"size:36;index"`
	UserID    string    `json:"user_id" gorm:"size:36"`
	Body      string    `json:"body" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName maps Comment onto the platform comments table.
func (Comment) TableName() string { return "comments" }

// Reaction is a read-only projection of a reaction on a vibelog.
type Reaction struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	VibelogID string    `json:"vibelog_id" gorm:"size:36;index"`
	UserID    string    `json:"user_id" gorm:"size:36"`
	Kind      string    `json:"kind" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName maps Reaction onto the platform reactions table.
func (Reaction) TableName() string { return "reactions" }

// VibelogDetail is a vibelog with its aggregate counts.
type VibelogDetail struct {
	Vibelog
	ReactionCount int64 `json:"reaction_count"`
	CommentCount  int64 `json:"comment_count"`
}

// CreatorStat pairs a profile with its published count.
type CreatorStat struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	VibelogCount int64  `json:"vibelog_count"`
}

// PlatformStats are the aggregate numbers for the whole platform.
type PlatformStats struct {
	UserCount      int64 `json:"user_count"`
	VibelogCount   int64 `json:"vibelog_count"`
	CommentCount   int64 `json:"comment_count"`
	PublishedToday int64 `json:"published_today"`
}
