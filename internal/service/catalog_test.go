package service

import (
	"testing"

	"novel_platform/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNovelLifecycle(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewCatalogService(gdb)
	author := seedUser(t, gdb, "author", 0)
	other := seedUser(t, gdb, "other", 0)

	_, err := svc.CreateNovel(bg, author.ID, NovelInput{Title: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	cover := "https://img.example.com/a.png"
	n, err := svc.CreateNovel(bg, author.ID, NovelInput{Title: " First ", Description: "d", CoverImage: &cover})
	require.NoError(t, err)
	assert.Equal(t, "First", n.Title)

	_, err = svc.UpdateNovel(bg, n.ID, other.ID, NovelInput{Title: "Hijack"})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.UpdateNovel(bg, n.ID, author.ID, NovelInput{Title: "Renamed", Description: "new"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	require.NotNil(t, updated.CoverImage)
	assert.Equal(t, cover, *updated.CoverImage, "nil cover keeps the old one")

	_, err = svc.UpdateNovel(bg, 999, author.ID, NovelInput{Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	seedChapter(t, gdb, n, 1, 0)
	require.NoError(t, gdb.Create(&domain.Comment{NovelID: n.ID, UserID: other.ID, Content: "hi"}).Error)
	require.NoError(t, gdb.Create(&domain.Like{NovelID: n.ID, UserID: other.ID}).Error)

	assert.ErrorIs(t, svc.DeleteNovel(bg, n.ID, other.ID), ErrForbidden)
	require.NoError(t, svc.DeleteNovel(bg, n.ID, author.ID))
	assert.Zero(t, countRows(t, gdb, &domain.Novel{}, "id = ?", n.ID))
	assert.Zero(t, countRows(t, gdb, &domain.Chapter{}, "novel_id = ?", n.ID))
	assert.Zero(t, countRows(t, gdb, &domain.Comment{}, "novel_id = ?", n.ID))
	assert.Zero(t, countRows(t, gdb, &domain.Like{}, "novel_id = ?", n.ID))
}

func TestDeleteKeepsPurchasedChapters(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewCatalogService(gdb)
	author := seedUser(t, gdb, "author", 0)
	reader := seedUser(t, gdb, "reader", 100)
	n := seedNovel(t, gdb, author, "N")
	ch := seedChapter(t, gdb, n, 1, 10)
	_, err := NewCoinService(gdb, nil).UnlockChapter(bg, reader.ID, ch.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteChapter(bg, n.ID, ch.ID, author.ID), ErrChapterPurchased)
	assert.ErrorIs(t, svc.DeleteNovel(bg, n.ID, author.ID), ErrChapterPurchased)
	assert.Equal(t, int64(1), countRows(t, gdb, &domain.ChapterAccess{}, "chapter_id = ?", ch.ID))
}

func TestChapterCRUD(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewCatalogService(gdb)
	author := seedUser(t, gdb, "author", 0)
	other := seedUser(t, gdb, "other", 0)
	n := seedNovel(t, gdb, author, "N")

	ch1, err := svc.CreateChapter(bg, n.ID, author.ID, ChapterInput{Title: "One", Content: "c1", Order: 1})
	require.NoError(t, err)
	ch2, err := svc.CreateChapter(bg, n.ID, author.ID, ChapterInput{Title: "Two", Content: "c2", Order: 2, Price: 5})
	require.NoError(t, err)

	_, err = svc.CreateChapter(bg, n.ID, author.ID, ChapterInput{Title: "Dup", Order: 1})
	assert.ErrorIs(t, err, ErrDuplicateOrder)
	_, err = svc.CreateChapter(bg, n.ID, other.ID, ChapterInput{Title: "Nope", Order: 3})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.CreateChapter(bg, n.ID, author.ID, ChapterInput{Title: "Neg", Order: 3, Price: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateChapter(bg, n.ID, ch2.ID, author.ID, ChapterInput{Title: "Two", Order: 1})
	assert.ErrorIs(t, err, ErrDuplicateOrder)
	up, err := svc.UpdateChapter(bg, n.ID, ch2.ID, author.ID, ChapterInput{Title: "Two!", Content: "c2b", Order: 2, Price: 8})
	require.NoError(t, err)
	assert.Equal(t, "Two!", up.Title)
	assert.Equal(t, int64(8), up.Price)

	_, err = svc.UpdateChapter(bg, n.ID, ch1.ID, other.ID, ChapterInput{Title: "x", Order: 1})
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.DeleteChapter(bg, n.ID, ch1.ID, author.ID))
	assert.ErrorIs(t, svc.DeleteChapter(bg, n.ID, ch1.ID, author.ID), ErrNotFound)
}

func TestReadChapter(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewCatalogService(gdb)
	author := seedUser(t, gdb, "author", 0)
	reader := seedUser(t, gdb, "reader", 100)
	n := seedNovel(t, gdb, author, "N")
	free := seedChapter(t, gdb, n, 1, 0)
	paid := seedChapter(t, gdb, n, 2, 20)
	last := seedChapter(t, gdb, n, 3, 20)

	v, err := svc.ReadChapter(bg, n.ID, free.ID, 0)
	require.NoError(t, err)
	assert.True(t, v.Unlocked)
	assert.Equal(t, "content 1", v.Chapter.Content)
	assert.Nil(t, v.PrevID)
	require.NotNil(t, v.NextID)
	assert.Equal(t, paid.ID, *v.NextID)

	v, err = svc.ReadChapter(bg, n.ID, paid.ID, reader.ID)
	require.NoError(t, err)
	assert.False(t, v.Unlocked)
	assert.Empty(t, v.Chapter.Content)
	assert.Equal(t, free.ID, *v.PrevID)
	assert.Equal(t, last.ID, *v.NextID)

	v, err = svc.ReadChapter(bg, n.ID, paid.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, v.Unlocked)
	assert.True(t, v.IsOwner)

	_, err = NewCoinService(gdb, nil).UnlockChapter(bg, reader.ID, paid.ID)
	require.NoError(t, err)
	v, err = svc.ReadChapter(bg, n.ID, paid.ID, reader.ID)
	require.NoError(t, err)
	assert.True(t, v.Unlocked)
	assert.Equal(t, "content 2", v.Chapter.Content)
	assert.Equal(t, int64(3), v.Chapter.ViewCount)

	var novel domain.Novel
	require.NoError(t, gdb.First(&novel, n.ID).Error)
	assert.Equal(t, int64(4), novel.ViewCount)

	_, err = svc.ReadChapter(bg, n.ID+1, paid.ID, reader.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndGetNovel(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewCatalogService(gdb)
	author := seedUser(t, gdb, "author", 0)
	reader := seedUser(t, gdb, "reader", 100)
	older := seedNovel(t, gdb, author, "Older")
	newer := seedNovel(t, gdb, author, "Newer")
	seedChapter(t, gdb, newer, 2, 10)
	ch1 := seedChapter(t, gdb, newer, 1, 10)
	require.NoError(t, gdb.Create(&domain.Like{UserID: reader.ID, NovelID: newer.ID}).Error)
	require.NoError(t, gdb.Create(&domain.Comment{UserID: reader.ID, NovelID: newer.ID, Content: "great"}).Error)
	_, err := NewCoinService(gdb, nil).UnlockChapter(bg, reader.ID, ch1.ID)
	require.NoError(t, err)

	novels, total, err := svc.ListNovels(bg, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, novels, 2)
	assert.Equal(t, newer.ID, novels[0].ID)
	assert.Equal(t, older.ID, novels[1].ID)
	assert.Equal(t, "author", novels[0].AuthorName)
	assert.Equal(t, int64(1), novels[0].LikeCount)
	assert.Equal(t, int64(2), novels[0].ChapterCount)

	d, err := svc.GetNovel(bg, newer.ID, reader.ID)
	require.NoError(t, err)
	assert.True(t, d.Liked)
	assert.False(t, d.Bookmarked)
	assert.False(t, d.IsOwner)
	require.Len(t, d.Chapters, 2)
	assert.Equal(t, 1, d.Chapters[0].Order)
	assert.True(t, d.Chapters[0].Unlocked)
	assert.False(t, d.Chapters[1].Unlocked)
	require.Len(t, d.Comments, 1)
	assert.Equal(t, "reader", d.Comments[0].Username)

	anon, err := svc.GetNovel(bg, newer.ID, 0)
	require.NoError(t, err)
	assert.False(t, anon.Liked)
	assert.False(t, anon.Chapters[0].Unlocked)

	_, err = svc.GetNovel(bg, 999, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}
