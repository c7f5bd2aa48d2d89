package domain

// Role is a user's capability level
type Role string

const (
	RoleUser  Role = "USER"  // Regular reader/author
	RoleAdmin Role = "ADMIN" // May review top-up requests
)

// User Model
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`                             // Primary key
	Username  string `gorm:"size:32;uniqueIndex;not null" json:"username"`     // Unique username
	Email     string `gorm:"size:191;uniqueIndex;not null" json:"email"`       // Unique email
	Password  string `gorm:"not null" json:"-"`                                // Hashed password
	Role      Role   `gorm:"size:16;not null;default:USER" json:"role"`        // USER or ADMIN
	Coins     int64  `gorm:"not null;default:0;check:coins >= 0" json:"coins"` // Coin balance, never negative
	CreatedAt int64  `gorm:"autoCreateTime:milli" json:"created_at"`           // Creation time in ms
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
