package api

import (
	"context"  // Review callback signature
	"net/http" // HTTP status codes
	"time"     // Cache TTL

	"novel_platform/internal/domain"     // Domain models
	"novel_platform/internal/middleware" // Auth context helpers
	"novel_platform/internal/service"    // Review and account operations
	"novel_platform/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// UserAdminResponse is a user as shown to admins
type UserAdminResponse struct {
	ID        uint        `json:"id"`         // User ID
	Username  string      `json:"username"`   // Username
	Email     string      `json:"email"`      // Email
	Role      domain.Role `json:"role"`       // User role
	Coins     int64       `json:"coins"`      // Coin balance
	CreatedAt int64       `json:"created_at"` // Registration time in ms
}

// UsersPage is one page of the admin user list
type UsersPage struct {
	Users      []UserAdminResponse `json:"users"`       // List of users
	Page       int                 `json:"page"`        // Current page
	PageSize   int                 `json:"page_size"`   // Page size
	Total      int64               `json:"total"`       // Total number of users
	TotalPages int                 `json:"total_pages"` // Total pages
	Cached     bool                `json:"cached"`      // Served from cache
}

// ListUsersHandler returns users with their balances
func ListUsersHandler(accounts *service.AccountService, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := pagination(c)
		cacheKey := adminUsersKey(page, pageSize)

		var cached UsersPage
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}

		users, total, err := accounts.ListUsers(ctx, page, pageSize)
		if err != nil {
			respondError(c, err, "Failed to fetch users")
			return
		}
		resp := UsersPage{
			Users:      make([]UserAdminResponse, len(users)),
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages(total, pageSize),
		}
		for i, u := range users {
			resp.Users[i] = UserAdminResponse{
				ID:        u.ID,
				Username:  u.Username,
				Email:     u.Email,
				Role:      u.Role,
				Coins:     u.Coins,
				CreatedAt: u.CreatedAt,
			}
		}
		if err := utils.SetCache(ctx, rdb, cacheKey, resp, ttl); err != nil {
			logrus.WithError(err).Warn("Failed to cache user list")
		}
		c.JSON(http.StatusOK, resp)
	}
}

// ListPendingTopUpsHandler returns the review queue, oldest first
func ListPendingTopUpsHandler(reviews *service.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqs, err := reviews.ListPending(c.Request.Context())
		if err != nil {
			respondError(c, err, "Failed to fetch pending top-ups")
			return
		}
		c.JSON(http.StatusOK, gin.H{"requests": reqs, "total": len(reqs)})
	}
}

// ApproveTopUpHandler credits a pending slip top-up
func ApproveTopUpHandler(reviews *service.ReviewService, rdb *redis.Client) gin.HandlerFunc {
	return reviewHandler(rdb, "Approve failed", reviews.Approve)
}

// RejectTopUpHandler closes a pending slip top-up without crediting
func RejectTopUpHandler(reviews *service.ReviewService, rdb *redis.Client) gin.HandlerFunc {
	return reviewHandler(rdb, "Reject failed", reviews.Reject)
}

type reviewFunc func(ctx context.Context, requestID, adminID uint) (*domain.TopUpRequest, error)

func reviewHandler(rdb *redis.Client, failure string, decide reviewFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		requestID, ok := idParam(c, "id")
		if !ok {
			return
		}
		req, err := decide(c.Request.Context(), requestID, adminID)
		if err != nil {
			respondError(c, err, failure)
			return
		}
		revalidate(c.Request.Context(), rdb, []string{balanceKey(req.UserID)}, adminUsersPattern)
		c.JSON(http.StatusOK, gin.H{"success": true, "request": req})
	}
}
