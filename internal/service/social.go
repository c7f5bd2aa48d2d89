package service

import (
	"context"
	"strings"

	"novel_platform/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SocialService handles comments, likes and bookmarks
type SocialService struct {
	db *gorm.DB
}

func NewSocialService(db *gorm.DB) *SocialService {
	return &SocialService{db: db}
}

// AddComment posts a comment on a novel
func (s *SocialService) AddComment(ctx context.Context, novelID, userID uint, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("comment cannot be empty")
	}
	db := s.db.WithContext(ctx)
	if err := novelExists(db, novelID); err != nil {
		return nil, err
	}
	comment := domain.Comment{NovelID: novelID, UserID: userID, Content: content}
	if err := db.Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a comment. The commenter and the novel's author may
// delete it. Returns the novel the comment belonged to.
func (s *SocialService) DeleteComment(ctx context.Context, commentID, userID uint) (uint, error) {
	var novelID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment domain.Comment
		if err := tx.First(&comment, commentID).Error; err != nil {
			return notFound(err)
		}
		novelID = comment.NovelID
		if comment.UserID != userID {
			var novel domain.Novel
			if err := tx.Select("id", "author_id").First(&novel, comment.NovelID).Error; err != nil {
				return notFound(err)
			}
			if novel.AuthorID != userID {
				return ErrForbidden
			}
		}
		return tx.Delete(&comment).Error
	})
	return novelID, err
}

// ToggleLike flips the user's like on a novel and returns the new state
func (s *SocialService) ToggleLike(ctx context.Context, novelID, userID uint) (bool, error) {
	return s.toggle(ctx, novelID, &domain.Like{UserID: userID, NovelID: novelID})
}

// ToggleBookmark flips the user's bookmark on a novel and returns the new state
func (s *SocialService) ToggleBookmark(ctx context.Context, novelID, userID uint) (bool, error) {
	return s.toggle(ctx, novelID, &domain.Bookmark{UserID: userID, NovelID: novelID})
}

// toggle deletes by (user_id, novel_id); if nothing was deleted it inserts,
// ignoring a conflicting concurrent insert. row must be a *Like or *Bookmark.
func (s *SocialService) toggle(ctx context.Context, novelID uint, row any) (bool, error) {
	db := s.db.WithContext(ctx)
	if err := novelExists(db, novelID); err != nil {
		return false, err
	}

	var userID uint
	switch r := row.(type) {
	case *domain.Like:
		userID = r.UserID
	case *domain.Bookmark:
		userID = r.UserID
	}

	on := false
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND novel_id = ?", userID, novelID).Delete(row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		on = true
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
	})
	return on, err
}

func novelExists(db *gorm.DB, id uint) error {
	found, err := exists(db.Model(&domain.Novel{}).Where("id = ?", id))
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}
