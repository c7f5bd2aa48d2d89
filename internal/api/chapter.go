package api

import (
	"net/http"

	"novel_platform/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// ChapterRequest is the create/update chapter form
type ChapterRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
	Order   int    `json:"order" binding:"required"`
	Price   int64  `json:"price"`
}

func (r ChapterRequest) input() service.ChapterInput {
	return service.ChapterInput{Title: r.Title, Content: r.Content, Order: r.Order, Price: r.Price}
}

// ReadChapterHandler returns a chapter; content is present only when unlocked
func ReadChapterHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		novelID, ok := idParam(c, "id")
		if !ok {
			return
		}
		chapterID, ok := idParam(c, "cid")
		if !ok {
			return
		}
		view, err := catalog.ReadChapter(c.Request.Context(), novelID, chapterID, viewer(c))
		if err != nil {
			respondError(c, err, "Failed to fetch chapter")
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func CreateChapterHandler(catalog *service.CatalogService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		novelID, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req ChapterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		chapter, err := catalog.CreateChapter(c.Request.Context(), novelID, userID, req.input())
		if err != nil {
			respondError(c, err, "Failed to create chapter")
			return
		}
		revalidateNovel(c.Request.Context(), rdb, novelID)
		c.JSON(http.StatusCreated, chapter)
	}
}

func UpdateChapterHandler(catalog *service.CatalogService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		novelID, ok := idParam(c, "id")
		if !ok {
			return
		}
		chapterID, ok := idParam(c, "cid")
		if !ok {
			return
		}
		var req ChapterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		chapter, err := catalog.UpdateChapter(c.Request.Context(), novelID, chapterID, userID, req.input())
		if err != nil {
			respondError(c, err, "Failed to update chapter")
			return
		}
		revalidateNovel(c.Request.Context(), rdb, novelID)
		c.JSON(http.StatusOK, chapter)
	}
}

func DeleteChapterHandler(catalog *service.CatalogService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		novelID, ok := idParam(c, "id")
		if !ok {
			return
		}
		chapterID, ok := idParam(c, "cid")
		if !ok {
			return
		}
		if err := catalog.DeleteChapter(c.Request.Context(), novelID, chapterID, userID); err != nil {
			respondError(c, err, "Failed to delete chapter")
			return
		}
		revalidateNovel(c.Request.Context(), rdb, novelID)
		c.JSON(http.StatusOK, gin.H{"message": "Chapter deleted"})
	}
}
