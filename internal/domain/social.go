package domain

// Comment Model
type Comment struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	NovelID   uint   `gorm:"not null;index" json:"novel_id"`
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	User      *User  `gorm:"foreignKey:UserID" json:"-"`
	Content   string `gorm:"type:text;not null" json:"content"`
	CreatedAt int64  `gorm:"autoCreateTime:milli" json:"created_at"`
}

// Like Model, at most one per (user, novel)
type Like struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	UserID  uint `gorm:"not null;uniqueIndex:idx_like_user_novel" json:"user_id"`
	NovelID uint `gorm:"not null;uniqueIndex:idx_like_user_novel;index" json:"novel_id"`
}

// Bookmark Model, at most one per (user, novel)
type Bookmark struct {
	ID        uint  `gorm:"primaryKey" json:"id"`
	UserID    uint  `gorm:"not null;uniqueIndex:idx_bookmark_user_novel" json:"user_id"`
	NovelID   uint  `gorm:"not null;uniqueIndex:idx_bookmark_user_novel;index" json:"novel_id"`
	CreatedAt int64 `gorm:"autoCreateTime:milli" json:"created_at"`
}
