package api

import (
	"net/http" // HTTP status codes
	"time"     // Cache TTL

	"novel_platform/internal/service" // Catalog operations
	"novel_platform/internal/utils"   // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// NovelRequest is the create/update form. Omitting cover_image keeps the current cover.
type NovelRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	CoverImage  *string `json:"cover_image"`
}

func (r NovelRequest) input() service.NovelInput {
	return service.NovelInput{Title: r.Title, Description: r.Description, CoverImage: r.CoverImage}
}

// FeedResponse is one page of the novel feed
type FeedResponse struct {
	Novels     []service.NovelSummary `json:"novels"`      // Novels, newest first
	Page       int                    `json:"page"`        // Current page
	PageSize   int                    `json:"page_size"`   // Page size
	Total      int64                  `json:"total"`       // Total novels
	TotalPages int                    `json:"total_pages"` // Total pages
	Cached     bool                   `json:"cached"`      // Served from cache
}

// ListNovelsHandler returns the feed, read through Redis
func ListNovelsHandler(catalog *service.CatalogService, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := pagination(c)
		cacheKey := feedKey(page, pageSize)

		var cached FeedResponse
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached.Cached = true // Indicate response is from cache
			c.JSON(http.StatusOK, cached)
			return
		}

		novels, total, err := catalog.ListNovels(ctx, page, pageSize)
		if err != nil {
			respondError(c, err, "Failed to fetch novels")
			return
		}
		resp := FeedResponse{
			Novels:     novels,
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages(total, pageSize),
		}
		if err := utils.SetCache(ctx, rdb, cacheKey, resp, ttl); err != nil {
			logrus.WithError(err).Warn("Failed to cache novel feed")
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetNovelHandler returns a novel page. Anonymous views are cached, signed-in
// views carry per-viewer state and are always fresh.
func GetNovelHandler(catalog *service.CatalogService, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		viewerID := viewer(c)

		if viewerID == 0 {
			var cached service.NovelDetail
			if found, err := utils.GetCache(ctx, rdb, novelKey(id), &cached); err == nil && found {
				c.JSON(http.StatusOK, cached)
				return
			}
		}
		detail, err := catalog.GetNovel(ctx, id, viewerID)
		if err != nil {
			respondError(c, err, "Failed to fetch novel")
			return
		}
		if viewerID == 0 {
			if err := utils.SetCache(ctx, rdb, novelKey(id), detail, ttl); err != nil {
				logrus.WithError(err).Warn("Failed to cache novel")
			}
		}
		c.JSON(http.StatusOK, detail)
	}
}

// CreateNovelHandler publishes a novel for the caller
func CreateNovelHandler(catalog *service.CatalogService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req NovelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		novel, err := catalog.CreateNovel(c.Request.Context(), userID, req.input())
		if err != nil {
			respondError(c, err, "Failed to create novel")
			return
		}
		revalidateNovel(c.Request.Context(), rdb, novel.ID)
		c.JSON(http.StatusCreated, novel)
	}
}

// UpdateNovelHandler edits a novel owned by the caller
func UpdateNovelHandler(catalog *service.CatalogService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req NovelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		novel, err := catalog.UpdateNovel(c.Request.Context(), id, userID, req.input())
		if err != nil {
			respondError(c, err, "Failed to update novel")
			return
		}
		revalidateNovel(c.Request.Context(), rdb, id)
		c.JSON(http.StatusOK, novel)
	}
}

// DeleteNovelHandler removes a novel owned by the caller along with its chapters
func DeleteNovelHandler(catalog *service.CatalogService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := catalog.DeleteNovel(c.Request.Context(), id, userID); err != nil {
			respondError(c, err, "Failed to delete novel")
			return
		}
		revalidateNovel(c.Request.Context(), rdb, id)
		logrus.WithFields(logrus.Fields{"user_id": userID, "novel_id": id}).Info("Novel deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Novel deleted"})
	}
}
