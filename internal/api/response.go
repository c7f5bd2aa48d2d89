package api

import (
	"context"  // Context for Redis operations
	"errors"   // Sentinel matching
	"fmt"      // Cache key formatting
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"novel_platform/internal/middleware" // Auth context helpers
	"novel_platform/internal/service"    // Business errors
	"novel_platform/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// Cache keys
const (
	feedPattern       = "novels:*"
	adminUsersPattern = "admin:users:*"
)

func feedKey(page, pageSize int) string { return fmt.Sprintf("novels:page=%d:size=%d", page, pageSize) }
func novelKey(id uint) string { return fmt.Sprintf("novel:%d", id) }
func balanceKey(userID uint) string { return fmt.Sprintf("coin:user:%d", userID) }
func adminUsersKey(page, pageSize int) string {
	return fmt.Sprintf("admin:users:page=%d:size=%d", page, pageSize)
}

// revalidate drops cached pages after a write. Failures only cost freshness.
func revalidate(ctx context.Context, rdb *redis.Client, keys []string, patterns ...string) {
	if err := utils.DeleteCache(ctx, rdb, keys...); err != nil {
		logrus.WithFields(logrus.Fields{"keys": keys, "error": err.Error()}).Warn("Cache invalidation failed")
	}
	for _, p := range patterns {
		if err := utils.DeleteCachePattern(ctx, rdb, p); err != nil {
			logrus.WithFields(logrus.Fields{"pattern": p, "error": err.Error()}).Warn("Cache invalidation failed")
		}
	}
}

// revalidateNovel refreshes the feed and one novel page
func revalidateNovel(ctx context.Context, rdb *redis.Client, novelID uint) {
	revalidate(ctx, rdb, []string{novelKey(novelID)}, feedPattern)
}

// respondError maps business errors to a status and user facing message
func respondError(c *gin.Context, err error, fallback string) {
	status, msg := http.StatusInternalServerError, fallback
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, service.ErrForbidden):
		status, msg = http.StatusForbidden, "You are not allowed to do that"
	case errors.Is(err, service.ErrUserExists):
		status, msg = http.StatusConflict, "Username or email is already registered"
	case errors.Is(err, service.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "Invalid username/email or password"
	case errors.Is(err, service.ErrDuplicateOrder):
		status, msg = http.StatusConflict, "A chapter with this order already exists"
	case errors.Is(err, service.ErrChapterPurchased):
		status, msg = http.StatusConflict, "Purchased chapters cannot be deleted"
	case errors.Is(err, service.ErrInsufficientBalance):
		status, msg = http.StatusPaymentRequired, "Not enough coins, please top up"
	case errors.Is(err, service.ErrAlreadyUnlocked):
		status, msg = http.StatusConflict, "Unlock failed, you may already own this chapter"
	case errors.Is(err, service.ErrInvalidVoucher):
		status, msg = http.StatusBadRequest, "Invalid link, please use a TrueMoney gift link"
	case errors.Is(err, service.ErrRedeemFailed):
		status, msg = http.StatusUnprocessableEntity, "Top-up failed: the voucher may be claimed or expired"
	case errors.Is(err, service.ErrInvalidUpload):
		status, msg = http.StatusBadRequest, "Please upload a slip image"
	case errors.Is(err, service.ErrNotPending):
		status, msg = http.StatusConflict, "This request has already been reviewed"
	}
	if status == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"path":       c.FullPath(),
			"request_id": c.GetString(middleware.CtxRequestID),
			"error":      err.Error(),
		}).Error(fallback)
	}
	c.JSON(status, gin.H{"error": msg})
}

// requireUser returns the authenticated user id or writes 401
func requireUser(c *gin.Context) (uint, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return id, ok
}

// viewer returns the optional viewer id, 0 for anonymous
func viewer(c *gin.Context) uint {
	id, _ := middleware.UserID(c)
	return id
}

// idParam parses a positive numeric path parameter or writes 400
func idParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(v), true
}

// pagination reads page (default 1) and page_size (default 20, max 100)
func pagination(c *gin.Context) (int, int) {
	page := 1      // Default page number
	pageSize := 20 // Default page size
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v > 0 && v <= 100 {
		pageSize = v
	}
	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	return (int(total) + pageSize - 1) / pageSize
}
