package domain

// Novel Model
type Novel struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	CoverImage  *string   `gorm:"size:512" json:"cover_image,omitempty"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Author      *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	ViewCount   int64     `gorm:"not null;default:0" json:"view_count"`
	Chapters    []Chapter `gorm:"foreignKey:NovelID" json:"chapters,omitempty"`
	CreatedAt   int64     `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt   int64     `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

// Chapter Model. Order is unique within a novel.
type Chapter struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	NovelID   uint   `gorm:"not null;uniqueIndex:idx_chapter_novel_order" json:"novel_id"`
	Title     string `gorm:"size:255;not null" json:"title"`
	Content   string `gorm:"type:longtext" json:"content,omitempty"`
	Order     int    `gorm:"column:sort_order;not null;uniqueIndex:idx_chapter_novel_order" json:"order"`
	Price     int64  `gorm:"not null;default:0;check:price >= 0" json:"price"`
	ViewCount int64  `gorm:"not null;default:0" json:"view_count"`
	CreatedAt int64  `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt int64  `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

// ChapterAccess grants a user permanent read access to a paid chapter.
// Rows are only ever inserted.
type ChapterAccess struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	UserID    uint     `gorm:"not null;uniqueIndex:idx_access_user_chapter" json:"user_id"`
	ChapterID uint     `gorm:"not null;uniqueIndex:idx_access_user_chapter;index" json:"chapter_id"`
	Chapter   *Chapter `gorm:"foreignKey:ChapterID" json:"-"`
	Price     int64    `gorm:"not null" json:"price"` // Coins paid at unlock time
	CreatedAt int64    `gorm:"autoCreateTime:milli" json:"created_at"`
}
