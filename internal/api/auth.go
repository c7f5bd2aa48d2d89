package api

import (
	"net/http" // HTTP status codes

	"novel_platform/internal/service" // Account operations
	"novel_platform/internal/utils"   // JWT and cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// RegisterRequest is the sign-up form
type RegisterRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// LoginRequest accepts a username or an email as identifier
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"` // Username or email
	Password   string `json:"password" binding:"required"`   // Password must be provided
}

// AuthResponse carries the session token
type AuthResponse struct {
	Token string `json:"token"` // JWT token
	ID    uint   `json:"id"`    // User ID
	Role  string `json:"role"`  // USER or ADMIN
}

// RegisterHandler creates an account
func RegisterHandler(accounts *service.AccountService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, err := accounts.Register(c.Request.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			respondError(c, err, "Registration failed")
			return
		}
		revalidate(c.Request.Context(), rdb, nil, adminUsersPattern) // Admin user list changed
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("User registered")
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "id": user.ID})
	}
}

// LoginHandler authenticates the user and returns a JWT token
func LoginHandler(accounts *service.AccountService, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, err := accounts.Authenticate(c.Request.Context(), req.Identifier, req.Password)
		if err != nil {
			respondError(c, err, "Login failed")
			return
		}
		token, err := utils.GenerateJWT(user.ID, string(user.Role), secret) // Generate JWT token
		if err != nil {
			respondError(c, err, "Failed to generate token")
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token, ID: user.ID, Role: string(user.Role)})
	}
}

// ProfileHandler returns the caller's profile with their novels and bookmarks
func ProfileHandler(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		profile, err := accounts.Profile(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err, "Failed to load profile")
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}
