package api

import (
	"net/http"

	"novel_platform/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// CommentRequest is a new comment
type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

func AddCommentHandler(social *service.SocialService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		novelID, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req CommentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		comment, err := social.AddComment(c.Request.Context(), novelID, userID, req.Content)
		if err != nil {
			respondError(c, err, "Failed to add comment")
			return
		}
		revalidate(c.Request.Context(), rdb, []string{novelKey(novelID)})
		c.JSON(http.StatusCreated, comment)
	}
}

// DeleteCommentHandler lets the commenter or the novel's author remove a comment
func DeleteCommentHandler(social *service.SocialService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		commentID, ok := idParam(c, "id")
		if !ok {
			return
		}
		novelID, err := social.DeleteComment(c.Request.Context(), commentID, userID)
		if err != nil {
			respondError(c, err, "Failed to delete comment")
			return
		}
		revalidate(c.Request.Context(), rdb, []string{novelKey(novelID)})
		c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
	}
}

func ToggleLikeHandler(social *service.SocialService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		novelID, ok := idParam(c, "id")
		if !ok {
			return
		}
		liked, err := social.ToggleLike(c.Request.Context(), novelID, userID)
		if err != nil {
			respondError(c, err, "Failed to update like")
			return
		}
		revalidateNovel(c.Request.Context(), rdb, novelID) // Like counts show in the feed
		c.JSON(http.StatusOK, gin.H{"liked": liked})
	}
}

func ToggleBookmarkHandler(social *service.SocialService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		novelID, ok := idParam(c, "id")
		if !ok {
			return
		}
		bookmarked, err := social.ToggleBookmark(c.Request.Context(), novelID, userID)
		if err != nil {
			respondError(c, err, "Failed to update bookmark")
			return
		}
		revalidate(c.Request.Context(), rdb, []string{novelKey(novelID)})
		c.JSON(http.StatusOK, gin.H{"bookmarked": bookmarked})
	}
}
