// Package platform is the fixed catalog of read-only queries the
// assistant may run against the relational content store. Every
// operation caps its result size to bound LLM context, and fails soft:
// a query error is logged and an empty result returned so the agent
// loop can continue.
package platform

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/goldenfocus/vibelog-assistant/internal/model"
	"github.com/goldenfocus/vibelog-assistant/pkg/logger"
)

const (
	maxSearchResults = 10
	maxListResults   = 20
)

// Service executes the query catalog.
type Service struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewService creates a platform query service.
func NewService(db *gorm.DB, log *logger.Logger) *Service {
	return &Service{db: db, logger: log}
}

func clamp(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}

func (s *Service) warn(op string, err error) {
	s.logger.Warn("platform query failed", zap.String("op", op), zap.Error(err))
}

// SearchVibelogs finds published vibelogs matching a keyword, with an
// optional author username filter.
func (s *Service) SearchVibelogs(ctx context.Context, keyword, author string, limit int) []model.Vibelog {
	q := s.db.WithContext(ctx).
		Where("published = ?", true).
		Where("title LIKE ? OR transcript LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	if author != "" {
		q = q.Where("user_id IN (?)", s.db.Model(&model.UserProfile{}).Select("id").Where("username = ?", author))
	}

	var vibelogs []model.Vibelog
	if err := q.Order("published_at DESC").Limit(clamp(limit, maxSearchResults)).Find(&vibelogs).Error; err != nil {
		s.warn("search_vibelogs", err)
		return []model.Vibelog{}
	}
	return vibelogs
}

// GetVibelog fetches one vibelog with its aggregate counts. Returns
// nil when not found or on error.
func (s *Service) GetVibelog(ctx context.Context, id string) *model.VibelogDetail {
	var vibelog model.Vibelog
	if err := s.db.WithContext(ctx).Where("id = ? AND published = ?", id, true).First(&vibelog).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			s.warn("get_vibelog", err)
		}
		return nil
	}

	detail := &model.VibelogDetail{Vibelog: vibelog}
	if err := s.db.WithContext(ctx).Model(&model.Reaction{}).Where("vibelog_id = ?", id).Count(&detail.ReactionCount).Error; err != nil {
		s.warn("get_vibelog_reactions", err)
	}
	if err := s.db.WithContext(ctx).Model(&model.Comment{}).Where("vibelog_id = ?", id).Count(&detail.CommentCount).Error; err != nil {
		s.warn("get_vibelog_comments", err)
	}
	return detail
}

// SearchUsers finds users by username or display name.
func (s *Service) SearchUsers(ctx context.Context, query string, limit int) []model.UserProfile {
	var users []model.UserProfile
	err := s.db.WithContext(ctx).
		Where("username LIKE ? OR display_name LIKE ?", "%"+query+"%", "%"+query+"%").
		Order("created_at DESC").
		Limit(clamp(limit, maxSearchResults)).
		Find(&users).Error
	if err != nil {
		s.warn("search_users", err)
		return []model.UserProfile{}
	}
	return users
}

// GetUserProfile fetches one user projection by id. Nil when absent.
func (s *Service) GetUserProfile(ctx context.Context, userID string) *model.UserProfile {
	var user model.UserProfile
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			s.warn("get_user_profile", err)
		}
		return nil
	}
	return &user
}

// ListUserVibelogs lists a user's published vibelogs, newest first.
func (s *Service) ListUserVibelogs(ctx context.Context, userID string, limit int) []model.Vibelog {
	var vibelogs []model.Vibelog
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND published = ?", userID, true).
		Order("published_at DESC").
		Limit(clamp(limit, maxListResults)).
		Find(&vibelogs).Error
	if err != nil {
		s.warn("list_user_vibelogs", err)
		return []model.Vibelog{}
	}
	return vibelogs
}

// ListRecentVibelogs lists the most recently published vibelogs. It is
// only empty when the platform has no published content at all.
func (s *Service) ListRecentVibelogs(ctx context.Context, limit int) []model.Vibelog {
	var vibelogs []model.Vibelog
	err := s.db.WithContext(ctx).
		Where("published = ?", true).
		Order("published_at DESC").
		Limit(clamp(limit, maxListResults)).
		Find(&vibelogs).Error
	if err != nil {
		s.warn("list_recent_vibelogs", err)
		return []model.Vibelog{}
	}
	return vibelogs
}

// ListTopCreators ranks users by published vibelog count.
func (s *Service) ListTopCreators(ctx context.Context, limit int) []model.CreatorStat {
	var stats []model.CreatorStat
	err := s.db.WithContext(ctx).
		Model(&model.Vibelog{}).
		Select("vibelogs.user_id, users.username, users.display_name, COUNT(vibelogs.id) AS vibelog_count").
		Joins("JOIN users ON users.id = vibelogs.user_id").
		Where("vibelogs.published = ?", true).
		Group("vibelogs.user_id, users.username, users.display_name").
		Order("vibelog_count DESC").
		Limit(clamp(limit, maxListResults)).
		Scan(&stats).Error
	if err != nil {
		s.warn("list_top_creators", err)
		return []model.CreatorStat{}
	}
	return stats
}

// GetStats returns platform-wide aggregate counts.
func (s *Service) GetStats(ctx context.Context) model.PlatformStats {
	var stats model.PlatformStats
	db := s.db.WithContext(ctx)

	if err := db.Model(&model.UserProfile{}).Count(&stats.UserCount).Error; err != nil {
		s.warn("stats_users", err)
	}
	if err := db.Model(&model.Vibelog{}).Where("published = ?", true).Count(&stats.VibelogCount).Error; err != nil {
		s.warn("stats_vibelogs", err)
	}
	if err := db.Model(&model.Comment{}).Count(&stats.CommentCount).Error; err != nil {
		s.warn("stats_comments", err)
	}
	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)
	if err := db.Model(&model.Vibelog{}).Where("published = ? AND published_at >= ?", true, startOfDay).Count(&stats.PublishedToday).Error; err != nil {
		s.warn("stats_published_today", err)
	}
	return stats
}

// ListVibelogComments lists comments on one vibelog, newest first.
func (s *Service) ListVibelogComments(ctx context.Context, vibelogID string, limit int) []model.Comment {
	var comments []model.Comment
	err := s.db.WithContext(ctx).
		Where("vibelog_id = ?", vibelogID).
		Order("created_at DESC").
		Limit(clamp(limit, maxListResults)).
		Find(&comments).Error
	if err != nil {
		s.warn("list_vibelog_comments", err)
		return []model.Comment{}
	}
	return comments
}

// ListRecentComments lists the newest comments platform-wide.
func (s *Service) ListRecentComments(ctx context.Context, limit int) []model.Comment {
	var comments []model.Comment
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(clamp(limit, maxListResults)).
		Find(&comments).Error
	if err != nil {
		s.warn("list_recent_comments", err)
		return []model.Comment{}
	}
	return comments
}

// ListNewMembers lists the newest platform members.
func (s *Service) ListNewMembers(ctx context.Context, limit int) []model.UserProfile {
	var users []model.UserProfile
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(clamp(limit, maxListResults)).
		Find(&users).Error
	if err != nil {
		s.warn("list_new_members", err)
		return []model.UserProfile{}
	}
	return users
}
