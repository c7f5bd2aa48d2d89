package api

import (
	"net/http"      // HTTP status codes
	"path/filepath" // Slip directory
	"time"          // Cache TTL

	"novel_platform/internal/metrics"    // Prometheus handler
	"novel_platform/internal/middleware" // Custom middleware
	"novel_platform/internal/service"    // Business services
	"novel_platform/internal/upload"     // Slip storage

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// Deps is everything the HTTP layer needs
type Deps struct {
	Accounts *service.AccountService
	Catalog  *service.CatalogService
	Social   *service.SocialService
	Coins    *service.CoinService
	Reviews  *service.ReviewService
	Uploads  *upload.Store
	Redis    *redis.Client // nil disables caching

	JWTSecret      string
	CacheTTL       time.Duration
	PromptPayID    string
	TrustedProxies []string
}

// NewRouter builds the gin engine with every route registered
func NewRouter(d Deps) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, err
	}
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(), middleware.HTTPMetrics())

	auth := middleware.JWTAuthMiddleware(d.JWTSecret)
	optionalAuth := middleware.OptionalJWTMiddleware(d.JWTSecret)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Auth routes
	r.POST("/user", RegisterHandler(d.Accounts, d.Redis))
	r.POST("/user/login", LoginHandler(d.Accounts, d.JWTSecret))
	r.GET("/me", auth, ProfileHandler(d.Accounts))

	// Catalog routes, reads are public
	novels := r.Group("/novels")
	novels.GET("", ListNovelsHandler(d.Catalog, d.Redis, d.CacheTTL))
	novels.GET("/:id", optionalAuth, GetNovelHandler(d.Catalog, d.Redis, d.CacheTTL))
	novels.GET("/:id/chapters/:cid", optionalAuth, ReadChapterHandler(d.Catalog))

	authored := novels.Group("", auth)
	authored.POST("", CreateNovelHandler(d.Catalog, d.Redis))
	authored.PUT("/:id", UpdateNovelHandler(d.Catalog, d.Redis))
	authored.DELETE("/:id", DeleteNovelHandler(d.Catalog, d.Redis))
	authored.POST("/:id/chapters", CreateChapterHandler(d.Catalog, d.Redis))
	authored.PUT("/:id/chapters/:cid", UpdateChapterHandler(d.Catalog, d.Redis))
	authored.DELETE("/:id/chapters/:cid", DeleteChapterHandler(d.Catalog, d.Redis))

	// Social routes
	authored.POST("/:id/comments", AddCommentHandler(d.Social, d.Redis))
	authored.POST("/:id/like", ToggleLikeHandler(d.Social, d.Redis))
	authored.POST("/:id/bookmark", ToggleBookmarkHandler(d.Social, d.Redis))
	r.DELETE("/comments/:id", auth, DeleteCommentHandler(d.Social, d.Redis))

	// Coin routes (protected by JWT)
	coin := r.Group("/coin", auth)
	coin.GET("", GetBalanceHandler(d.Coins, d.Redis, d.CacheTTL))
	coin.GET("/history", HistoryHandler(d.Coins))
	coin.POST("/unlock/:cid", UnlockChapterHandler(d.Coins, d.Redis))
	coin.POST("/topup/wallet", RedeemWalletHandler(d.Coins, d.Redis))
	coin.POST("/topup/slip", SubmitSlipHandler(d.Coins, d.Uploads))
	coin.GET("/topup/qrcode", QRCodeHandler(d.PromptPayID))

	// Admin routes (protected, admin only)
	admin := r.Group("/admin", auth, middleware.AdminOnlyMiddleware(d.Accounts))
	admin.GET("/users", ListUsersHandler(d.Accounts, d.Redis, d.CacheTTL))
	admin.GET("/topups", ListPendingTopUpsHandler(d.Reviews))
	admin.POST("/topups/:id/approve", ApproveTopUpHandler(d.Reviews, d.Redis))
	admin.POST("/topups/:id/reject", RejectTopUpHandler(d.Reviews, d.Redis))
	admin.Static("/slips", filepath.Join(d.Uploads.Dir, "slips")) // Slip images are only shown to reviewers

	return r, nil
}
