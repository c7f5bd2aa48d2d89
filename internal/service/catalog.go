package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"novel_platform/internal/domain"

	"gorm.io/gorm"
)

// CatalogService manages novels and chapters
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// NovelSummary is a feed row
type NovelSummary struct {
	ID           uint    `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	CoverImage   *string `json:"cover_image,omitempty"`
	AuthorID     uint    `json:"author_id"`
	AuthorName   string  `json:"author_name"`
	ViewCount    int64   `json:"view_count"`
	LikeCount    int64   `json:"like_count"`
	ChapterCount int64   `json:"chapter_count"`
	CreatedAt    int64   `json:"created_at"`
	UpdatedAt    int64   `json:"updated_at"`
}

// ChapterItem is a chapter in a novel's table of contents
type ChapterItem struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Order     int    `json:"order"`
	Price     int64  `json:"price"`
	ViewCount int64  `json:"view_count"`
	Unlocked  bool   `json:"unlocked"`
}

// CommentView is a comment with the commenter's username
type CommentView struct {
	ID        uint   `json:"id"`
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

// NovelDetail is a novel page as seen by one viewer
type NovelDetail struct {
	NovelSummary
	BookmarkCount int64         `json:"bookmark_count"`
	Liked         bool          `json:"liked"`
	Bookmarked    bool          `json:"bookmarked"`
	IsOwner       bool          `json:"is_owner"`
	Chapters      []ChapterItem `json:"chapters"`
	Comments      []CommentView `json:"comments"`
}

// ChapterView is a chapter page. Content is empty unless Unlocked.
type ChapterView struct {
	Chapter    domain.Chapter `json:"chapter"`
	NovelTitle string         `json:"novel_title"`
	AuthorID   uint           `json:"author_id"`
	Unlocked   bool           `json:"unlocked"`
	IsOwner    bool           `json:"is_owner"`
	PrevID     *uint          `json:"prev_id"`
	NextID     *uint          `json:"next_id"`
}

// NovelInput carries editable novel fields. A nil CoverImage keeps the current cover.
type NovelInput struct {
	Title       string
	Description string
	CoverImage  *string
}

// ChapterInput carries editable chapter fields
type ChapterInput struct {
	Title   string
	Content string
	Order   int
	Price   int64
}

func (in *NovelInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || len(in.Title) > 255 {
		return invalid("title is required (max 255 characters)")
	}
	if in.CoverImage != nil && len(*in.CoverImage) > 512 {
		return invalid("cover image url is too long")
	}
	return nil
}

func (in *ChapterInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	switch {
	case in.Title == "" || len(in.Title) > 255:
		return invalid("title is required (max 255 characters)")
	case in.Order < 1:
		return invalid("order must be 1 or greater")
	case in.Price < 0:
		return invalid("price cannot be negative")
	}
	return nil
}

func summaryQuery(db *gorm.DB) *gorm.DB {
	return db.Table("novels").
		Select(`novels.id, novels.title, novels.description, novels.cover_image, novels.author_id,
			novels.view_count, novels.created_at, novels.updated_at, users.username AS author_name,
			(SELECT COUNT(*) FROM likes WHERE likes.novel_id = novels.id) AS like_count,
			(SELECT COUNT(*) FROM chapters WHERE chapters.novel_id = novels.id) AS chapter_count`).
		Joins("LEFT JOIN users ON users.id = novels.author_id")
}

// ListNovels returns one page of the feed, newest first
func (s *CatalogService) ListNovels(ctx context.Context, page, pageSize int) ([]NovelSummary, int64, error) {
	db := s.db.WithContext(ctx)
	var total int64
	if err := db.Model(&domain.Novel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	novels := []NovelSummary{}
	err := summaryQuery(db).
		Order("novels.created_at DESC, novels.id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Scan(&novels).Error
	return novels, total, err
}

// GetNovel loads a novel page. viewerID 0 is an anonymous visitor.
func (s *CatalogService) GetNovel(ctx context.Context, id, viewerID uint) (*NovelDetail, error) {
	db := s.db.WithContext(ctx)
	d := &NovelDetail{Chapters: []ChapterItem{}, Comments: []CommentView{}}

	res := summaryQuery(db).Where("novels.id = ?", id).Limit(1).Scan(&d.NovelSummary)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	d.IsOwner = viewerID != 0 && viewerID == d.AuthorID

	var chapters []domain.Chapter
	if err := db.Select("id", "title", "sort_order", "price", "view_count").
		Where("novel_id = ?", id).Order("sort_order ASC").
		Find(&chapters).Error; err != nil {
		return nil, fmt.Errorf("load chapters: %w", err)
	}

	owned := map[uint]bool{}
	if viewerID != 0 && !d.IsOwner {
		var ids []uint
		if err := db.Model(&domain.ChapterAccess{}).
			Joins("JOIN chapters ON chapters.id = chapter_accesses.chapter_id").
			Where("chapter_accesses.user_id = ? AND chapters.novel_id = ?", viewerID, id).
			Pluck("chapter_accesses.chapter_id", &ids).Error; err != nil {
			return nil, fmt.Errorf("load accesses: %w", err)
		}
		for _, cid := range ids {
			owned[cid] = true
		}
	}
	for _, ch := range chapters {
		d.Chapters = append(d.Chapters, ChapterItem{
			ID:        ch.ID,
			Title:     ch.Title,
			Order:     ch.Order,
			Price:     ch.Price,
			ViewCount: ch.ViewCount,
			Unlocked:  d.IsOwner || ch.Price == 0 || owned[ch.ID],
		})
	}

	if err := db.Model(&domain.Bookmark{}).Where("novel_id = ?", id).Count(&d.BookmarkCount).Error; err != nil {
		return nil, err
	}
	if viewerID != 0 {
		var err error
		if d.Liked, err = exists(db.Model(&domain.Like{}).Where("user_id = ? AND novel_id = ?", viewerID, id)); err != nil {
			return nil, err
		}
		if d.Bookmarked, err = exists(db.Model(&domain.Bookmark{}).Where("user_id = ? AND novel_id = ?", viewerID, id)); err != nil {
			return nil, err
		}
	}

	if err := db.Table("comments").
		Select("comments.id, comments.user_id, users.username, comments.content, comments.created_at").
		Joins("LEFT JOIN users ON users.id = comments.user_id").
		Where("comments.novel_id = ?", id).
		Order("comments.created_at DESC, comments.id DESC").
		Scan(&d.Comments).Error; err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	return d, nil
}

// CreateNovel publishes a novel owned by authorID
func (s *CatalogService) CreateNovel(ctx context.Context, authorID uint, in NovelInput) (*domain.Novel, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	novel := domain.Novel{
		Title:       in.Title,
		Description: in.Description,
		CoverImage:  in.CoverImage,
		AuthorID:    authorID,
	}
	if err := s.db.WithContext(ctx).Create(&novel).Error; err != nil {
		return nil, err
	}
	return &novel, nil
}

// UpdateNovel edits a novel. Only its author may do so.
func (s *CatalogService) UpdateNovel(ctx context.Context, id, userID uint, in NovelInput) (*domain.Novel, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var novel domain.Novel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ownNovel(tx, id, userID, &novel); err != nil {
			return err
		}
		updates := map[string]any{"title": in.Title, "description": in.Description}
		if in.CoverImage != nil {
			updates["cover_image"] = *in.CoverImage
		}
		if err := tx.Model(&novel).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&novel, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &novel, nil
}

// DeleteNovel removes a novel together with its chapters, comments, likes and
// bookmarks. Novels with purchased chapters cannot be deleted.
func (s *CatalogService) DeleteNovel(ctx context.Context, id, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var novel domain.Novel
		if err := ownNovel(tx, id, userID, &novel); err != nil {
			return err
		}
		sold, err := exists(tx.Model(&domain.ChapterAccess{}).
			Joins("JOIN chapters ON chapters.id = chapter_accesses.chapter_id").
			Where("chapters.novel_id = ?", id))
		if err != nil {
			return err
		}
		if sold {
			return ErrChapterPurchased
		}
		for _, m := range []any{&domain.Like{}, &domain.Bookmark{}, &domain.Comment{}, &domain.Chapter{}} {
			if err := tx.Where("novel_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&novel).Error
	})
}

// CreateChapter appends a chapter to a novel owned by userID
func (s *CatalogService) CreateChapter(ctx context.Context, novelID, userID uint, in ChapterInput) (*domain.Chapter, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	chapter := domain.Chapter{
		NovelID: novelID,
		Title:   in.Title,
		Content: in.Content,
		Order:   in.Order,
		Price:   in.Price,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var novel domain.Novel
		if err := ownNovel(tx, novelID, userID, &novel); err != nil {
			return err
		}
		if err := orderFree(tx, novelID, in.Order, 0); err != nil {
			return err
		}
		return tx.Create(&chapter).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrDuplicateOrder
	}
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

// UpdateChapter edits a chapter of a novel owned by userID. A new price only
// affects future unlocks.
func (s *CatalogService) UpdateChapter(ctx context.Context, novelID, chapterID, userID uint, in ChapterInput) (*domain.Chapter, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var chapter domain.Chapter
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var novel domain.Novel
		if err := ownNovel(tx, novelID, userID, &novel); err != nil {
			return err
		}
		if err := findChapter(tx, novelID, chapterID, &chapter); err != nil {
			return err
		}
		if err := orderFree(tx, novelID, in.Order, chapterID); err != nil {
			return err
		}
		if err := tx.Model(&chapter).Updates(map[string]any{
			"title":      in.Title,
			"content":    in.Content,
			"sort_order": in.Order,
			"price":      in.Price,
		}).Error; err != nil {
			return err
		}
		return tx.First(&chapter, chapterID).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrDuplicateOrder
	}
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

// DeleteChapter removes a chapter nobody has bought yet
func (s *CatalogService) DeleteChapter(ctx context.Context, novelID, chapterID, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var novel domain.Novel
		if err := ownNovel(tx, novelID, userID, &novel); err != nil {
			return err
		}
		var chapter domain.Chapter
		if err := findChapter(tx, novelID, chapterID, &chapter); err != nil {
			return err
		}
		sold, err := exists(tx.Model(&domain.ChapterAccess{}).Where("chapter_id = ?", chapterID))
		if err != nil {
			return err
		}
		if sold {
			return ErrChapterPurchased
		}
		return tx.Delete(&chapter).Error
	})
}

// ReadChapter counts a view on the chapter and its novel and returns the
// chapter with its neighbours. Content is withheld unless the viewer owns the
// novel, the chapter is free or the viewer bought it.
func (s *CatalogService) ReadChapter(ctx context.Context, novelID, chapterID, viewerID uint) (*ChapterView, error) {
	db := s.db.WithContext(ctx)

	var chapter domain.Chapter
	if err := findChapter(db, novelID, chapterID, &chapter); err != nil {
		return nil, err
	}
	var novel domain.Novel
	if err := db.Select("id", "title", "author_id").First(&novel, novelID).Error; err != nil {
		return nil, notFound(err)
	}

	if err := db.Model(&domain.Chapter{}).Where("id = ?", chapter.ID).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error; err != nil {
		return nil, fmt.Errorf("count chapter view: %w", err)
	}
	if err := db.Model(&domain.Novel{}).Where("id = ?", novel.ID).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error; err != nil {
		return nil, fmt.Errorf("count novel view: %w", err)
	}
	chapter.ViewCount++

	v := &ChapterView{
		NovelTitle: novel.Title,
		AuthorID:   novel.AuthorID,
		IsOwner:    viewerID != 0 && viewerID == novel.AuthorID,
	}
	v.Unlocked = v.IsOwner || chapter.Price == 0
	if !v.Unlocked && viewerID != 0 {
		owned, err := exists(db.Model(&domain.ChapterAccess{}).Where("user_id = ? AND chapter_id = ?", viewerID, chapter.ID))
		if err != nil {
			return nil, err
		}
		v.Unlocked = owned
	}
	if !v.Unlocked {
		chapter.Content = ""
	}
	v.Chapter = chapter

	var err error
	if v.PrevID, err = neighbour(db.Where("novel_id = ? AND sort_order < ?", novelID, chapter.Order).Order("sort_order DESC")); err != nil {
		return nil, err
	}
	if v.NextID, err = neighbour(db.Where("novel_id = ? AND sort_order > ?", novelID, chapter.Order).Order("sort_order ASC")); err != nil {
		return nil, err
	}
	return v, nil
}

func ownNovel(tx *gorm.DB, id, userID uint, novel *domain.Novel) error {
	if err := tx.First(novel, id).Error; err != nil {
		return notFound(err)
	}
	if novel.AuthorID != userID {
		return ErrForbidden
	}
	return nil
}

func findChapter(tx *gorm.DB, novelID, chapterID uint, chapter *domain.Chapter) error {
	err := tx.Where("id = ? AND novel_id = ?", chapterID, novelID).First(chapter).Error
	return notFound(err)
}

func orderFree(tx *gorm.DB, novelID uint, order int, exceptID uint) error {
	taken, err := exists(tx.Model(&domain.Chapter{}).
		Where("novel_id = ? AND sort_order = ? AND id <> ?", novelID, order, exceptID))
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateOrder
	}
	return nil
}

func neighbour(q *gorm.DB) (*uint, error) {
	var ids []uint
	if err := q.Model(&domain.Chapter{}).Limit(1).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return &ids[0], nil
}

func exists(q *gorm.DB) (bool, error) {
	var n int64
	if err := q.Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
