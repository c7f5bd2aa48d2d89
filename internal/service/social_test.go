package service

import (
	"testing"

	"novel_platform/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLike(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewSocialService(gdb)
	author := seedUser(t, gdb, "author", 0)
	reader := seedUser(t, gdb, "reader", 0)
	n := seedNovel(t, gdb, author, "N")

	for i, want := range []bool{true, false, true} {
		on, err := svc.ToggleLike(bg, n.ID, reader.ID)
		require.NoError(t, err, "toggle %d", i)
		assert.Equal(t, want, on, "toggle %d", i)
	}
	assert.Equal(t, int64(1), countRows(t, gdb, &domain.Like{}, "user_id = ? AND novel_id = ?", reader.ID, n.ID))

	_, err := svc.ToggleLike(bg, 999, reader.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleBookmark(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewSocialService(gdb)
	author := seedUser(t, gdb, "author", 0)
	reader := seedUser(t, gdb, "reader", 0)
	n := seedNovel(t, gdb, author, "N")

	on, err := svc.ToggleBookmark(bg, n.ID, reader.ID)
	require.NoError(t, err)
	assert.True(t, on)
	on, err = svc.ToggleBookmark(bg, n.ID, reader.ID)
	require.NoError(t, err)
	assert.False(t, on)
	assert.Zero(t, countRows(t, gdb, &domain.Bookmark{}, "user_id = ?", reader.ID))
}

func TestComments(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewSocialService(gdb)
	author := seedUser(t, gdb, "author", 0)
	reader := seedUser(t, gdb, "reader", 0)
	stranger := seedUser(t, gdb, "stranger", 0)
	n := seedNovel(t, gdb, author, "N")

	_, err := svc.AddComment(bg, n.ID, reader.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.AddComment(bg, 999, reader.ID, "hello")
	assert.ErrorIs(t, err, ErrNotFound)

	c1, err := svc.AddComment(bg, n.ID, reader.ID, "first")
	require.NoError(t, err)
	c2, err := svc.AddComment(bg, n.ID, reader.ID, "second")
	require.NoError(t, err)

	_, err = svc.DeleteComment(bg, c1.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	novelID, err := svc.DeleteComment(bg, c1.ID, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, novelID)
	_, err = svc.DeleteComment(bg, c2.ID, author.ID)
	require.NoError(t, err)

	_, err = svc.DeleteComment(bg, c2.ID, author.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
