package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"novel_platform/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

// AccountService handles registration, login and profiles
type AccountService struct {
	db *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// Profile is a user's own page: their novels and bookmarked novels
type Profile struct {
	User      domain.User    `json:"user"`
	Novels    []NovelSummary `json:"novels"`
	Bookmarks []NovelSummary `json:"bookmarks"`
}

// Register creates a USER account with a zero balance
func (s *AccountService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	switch {
	case !usernameRe.MatchString(username):
		return nil, invalid("username must be 3-32 letters, digits or underscores")
	case len(email) > 191 || !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@"):
		return nil, invalid("email is not valid")
	case len(password) < 8 || len(password) > 64:
		return nil, invalid("password must be 8-64 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		Role:     domain.RoleUser,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.User{}).Where("username = ? OR email = ?", username, email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrUserExists
		}
		return tx.Create(&user).Error
	})
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, ErrUserExists
	case err != nil:
		return nil, err
	}
	return &user, nil
}

// Authenticate checks a username or email against its password
func (s *AccountService) Authenticate(ctx context.Context, identifier, password string) (*domain.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	var user domain.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get loads a user by id
func (s *AccountService) Get(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// IsAdmin re-reads the role so that a demotion takes effect before the token expires
func (s *AccountService) IsAdmin(ctx context.Context, id uint) (bool, error) {
	user, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

// Profile returns the user with their novels (newest first) and bookmarks
func (s *AccountService) Profile(ctx context.Context, id uint) (*Profile, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p := &Profile{User: *user, Novels: []NovelSummary{}, Bookmarks: []NovelSummary{}}
	db := s.db.WithContext(ctx)

	if err := summaryQuery(db).
		Where("novels.author_id = ?", id).
		Order("novels.created_at DESC, novels.id DESC").
		Scan(&p.Novels).Error; err != nil {
		return nil, fmt.Errorf("load novels: %w", err)
	}
	if err := summaryQuery(db).
		Joins("JOIN bookmarks ON bookmarks.novel_id = novels.id AND bookmarks.user_id = ?", id).
		Order("bookmarks.id DESC").
		Scan(&p.Bookmarks).Error; err != nil {
		return nil, fmt.Errorf("load bookmarks: %w", err)
	}
	return p, nil
}

// GrantAdmin promotes a user to ADMIN
func (s *AccountService) GrantAdmin(ctx context.Context, username string) error {
	db := s.db.WithContext(ctx)
	var user domain.User
	err := db.Where("username = ?", strings.ToLower(strings.TrimSpace(username))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	return db.Model(&user).Update("role", domain.RoleAdmin).Error
}

// ListUsers returns one page of users, newest first
func (s *AccountService) ListUsers(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	var total int64
	db := s.db.WithContext(ctx)
	if err := db.Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	users := []domain.User{}
	err := db.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error
	return users, total, err
}
