package service

import (
	"context"
	"fmt"
	"testing"

	"novel_platform/internal/db"
	"novel_platform/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// a single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

func seedUser(t *testing.T, gdb *gorm.DB, name string, coins int64) *domain.User {
	t.Helper()
	u := &domain.User{
		Username: name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "x",
		Role:     domain.RoleUser,
		Coins:    coins,
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func seedNovel(t *testing.T, gdb *gorm.DB, author *domain.User, title string) *domain.Novel {
	t.Helper()
	n := &domain.Novel{Title: title, AuthorID: author.ID}
	require.NoError(t, gdb.Create(n).Error)
	return n
}

func seedChapter(t *testing.T, gdb *gorm.DB, novel *domain.Novel, order int, price int64) *domain.Chapter {
	t.Helper()
	ch := &domain.Chapter{
		NovelID: novel.ID,
		Title:   fmt.Sprintf("Chapter %d", order),
		Content: fmt.Sprintf("content %d", order),
		Order:   order,
		Price:   price,
	}
	require.NoError(t, gdb.Create(ch).Error)
	return ch
}

func coinsOf(t *testing.T, gdb *gorm.DB, id uint) int64 {
	t.Helper()
	var u domain.User
	require.NoError(t, gdb.First(&u, id).Error)
	return u.Coins
}

func countRows(t *testing.T, gdb *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

var bg = context.Background()
