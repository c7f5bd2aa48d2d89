package api

import (
	"errors"   // Upload error matching
	"net/http" // HTTP status codes
	"strconv"  // Amount parsing
	"time"     // Cache TTL

	"novel_platform/internal/promptpay" // QR payloads
	"novel_platform/internal/service"   // Coin operations
	"novel_platform/internal/upload"    // Slip storage
	"novel_platform/internal/utils"     // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Baht amounts
	"github.com/sirupsen/logrus"    // Logging library
)

// multipartOverhead is allowed on top of the slip size for the other form parts
const multipartOverhead = 1 << 20

// RedeemRequest carries a TrueMoney gift link
type RedeemRequest struct {
	Link string `json:"link" binding:"required"`
}

// BalanceResponse is the caller's balance
type BalanceResponse struct {
	UserID uint  `json:"user_id"` // User ID
	Coins  int64 `json:"coins"`   // Current balance
	Cached bool  `json:"cached"`  // Served from cache
}

// GetBalanceHandler returns the caller's coins, read through Redis
func GetBalanceHandler(coins *service.CoinService, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		var cached BalanceResponse
		if found, err := utils.GetCache(ctx, rdb, balanceKey(userID), &cached); err == nil && found {
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}
		balance, err := coins.Balance(ctx, userID)
		if err != nil {
			respondError(c, err, "Failed to fetch balance")
			return
		}
		resp := BalanceResponse{UserID: userID, Coins: balance}
		if err := utils.SetCache(ctx, rdb, balanceKey(userID), resp, ttl); err != nil {
			logrus.WithError(err).Warn("Failed to cache balance")
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HistoryHandler returns the caller's top-ups and chapter purchases
func HistoryHandler(coins *service.CoinService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		history, err := coins.History(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err, "Failed to fetch history")
			return
		}
		c.JSON(http.StatusOK, history)
	}
}

// UnlockChapterHandler buys a chapter with coins
func UnlockChapterHandler(coins *service.CoinService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		chapterID, ok := idParam(c, "cid")
		if !ok {
			return
		}
		access, err := coins.UnlockChapter(c.Request.Context(), userID, chapterID)
		if err != nil {
			respondError(c, err, "Unlock failed, you may already own this chapter")
			return
		}
		revalidate(c.Request.Context(), rdb, []string{balanceKey(userID)}, adminUsersPattern)
		c.JSON(http.StatusOK, gin.H{"success": true, "chapter_id": chapterID, "price": access.Price})
	}
}

// RedeemWalletHandler tops up from a TrueMoney gift link
func RedeemWalletHandler(coins *service.CoinService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req RedeemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		amount, err := coins.RedeemVoucher(c.Request.Context(), userID, req.Link)
		if err != nil {
			respondError(c, err, "Top-up failed")
			return
		}
		revalidate(c.Request.Context(), rdb, []string{balanceKey(userID)}, adminUsersPattern)
		c.JSON(http.StatusOK, gin.H{"success": true, "amount": amount})
	}
}

// SubmitSlipHandler accepts a multipart form with "amount" and a "slip" image
func SubmitSlipHandler(coins *service.CoinService, store *upload.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, store.MaxBytes+multipartOverhead)

		amount, err := strconv.ParseInt(c.PostForm("amount"), 10, 64)
		if err != nil || amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be a positive whole number"})
			return
		}
		fh, err := c.FormFile("slip")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please upload a slip image"})
			return
		}
		proof, err := store.SaveImage(fh, "slips", "slip")
		if err != nil {
			switch {
			case errors.Is(err, upload.ErrEmptyFile), errors.Is(err, upload.ErrNotImage):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Please upload a slip image"})
			case errors.Is(err, upload.ErrTooLarge):
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Slip image is too large"})
			default:
				respondError(c, err, "Failed to store slip")
			}
			return
		}

		req, err := coins.SubmitSlip(c.Request.Context(), userID, amount, proof)
		if err != nil {
			if rmErr := store.Remove(proof); rmErr != nil {
				logrus.WithFields(logrus.Fields{"path": proof, "error": rmErr.Error()}).Warn("Failed to remove orphan slip")
			}
			respondError(c, err, "Failed to submit slip")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "request": req})
	}
}

// QRCodeHandler renders a PromptPay QR for ?amount= baht, or a static QR without one
func QRCodeHandler(promptPayID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if promptPayID == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "PromptPay is not configured"})
			return
		}
		amount := decimal.Zero
		if raw := c.Query("amount"); raw != "" {
			var err error
			amount, err = decimal.NewFromString(raw)
			if err != nil || amount.IsNegative() || amount.Exponent() < -2 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
				return
			}
		}
		payload, err := promptpay.Payload(promptPayID, amount)
		if err != nil {
			respondError(c, err, "Failed to build PromptPay payload")
			return
		}
		dataURL, err := promptpay.DataURL(payload, promptpay.DefaultSize)
		if err != nil {
			respondError(c, err, "Failed to render QR code")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"payload": payload,
			"amount":  amount.StringFixed(2),
			"qr_code": dataURL,
		})
	}
}
