package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"novel_platform/internal/db"
	"novel_platform/internal/service"
	"novel_platform/internal/upload"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "router-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedRedeemer struct{ amount decimal.Decimal }

func (f fixedRedeemer) Redeem(context.Context, string) (decimal.Decimal, error) { return f.amount, nil }

type testServer struct {
	t        *testing.T
	router   *gin.Engine
	gdb      *gorm.DB
	accounts *service.AccountService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = sqlDB.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	accounts := service.NewAccountService(gdb)
	r, err := NewRouter(Deps{
		Accounts:    accounts,
		Catalog:     service.NewCatalogService(gdb),
		Social:      service.NewSocialService(gdb),
		Coins:       service.NewCoinService(gdb, fixedRedeemer{amount: decimal.RequireFromString("120.40")}),
		Reviews:     service.NewReviewService(gdb),
		Uploads:     upload.NewStore(t.TempDir(), 1<<20),
		Redis:       rdb,
		JWTSecret:   testSecret,
		CacheTTL:    time.Minute,
		PromptPayID: "0812345678",
	})
	require.NoError(t, err)
	return &testServer{t: t, router: r, gdb: gdb, accounts: accounts}
}

func (s *testServer) do(method, path, token string, body any) (int, map[string]any) {
	s.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	return s.serve(req, token)
}

func (s *testServer) serve(req *http.Request, token string) (int, map[string]any) {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	out := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

// signup registers and logs in, returning the token and user id
func (s *testServer) signup(name string) (string, uint) {
	s.t.Helper()
	code, _ := s.do(http.MethodPost, "/user", "", gin.H{
		"username": name, "email": name + "@example.com", "password": "password123",
	})
	require.Equal(s.t, http.StatusCreated, code)
	code, body := s.do(http.MethodPost, "/user/login", "", gin.H{"identifier": name, "password": "password123"})
	require.Equal(s.t, http.StatusOK, code)
	return body["token"].(string), uint(body["id"].(float64))
}

func (s *testServer) uploadSlip(token string, amount string) (int, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	require.NoError(s.t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(s.t, w.WriteField("amount", amount))
	part, err := w.CreateFormFile("slip", "bank slip.png")
	require.NoError(s.t, err)
	_, err = part.Write(buf.Bytes())
	require.NoError(s.t, err)
	require.NoError(s.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/coin/topup/slip", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.serve(req, token)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token, id := s.signup("reader")

	code, _ := s.do(http.MethodPost, "/user", "", gin.H{"username": "reader", "email": "x@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(http.MethodPost, "/user/login", "", gin.H{"identifier": "reader@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := s.do(http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	user := body["user"].(map[string]any)
	assert.Equal(t, float64(id), user["id"])
	assert.NotContains(t, user, "password")

	code, _ = s.do(http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestPaywallFlow(t *testing.T) {
	s := newTestServer(t)
	authorToken, _ := s.signup("author")
	readerToken, readerID := s.signup("reader")
	adminToken, _ := s.signup("boss")
	require.NoError(t, s.accounts.GrantAdmin(context.Background(), "boss"))

	code, novel := s.do(http.MethodPost, "/novels", authorToken, gin.H{"title": "Paid Story"})
	require.Equal(t, http.StatusCreated, code)
	novelID := uint(novel["id"].(float64))

	code, chapter := s.do(http.MethodPost, fmt.Sprintf("/novels/%d/chapters", novelID), authorToken,
		gin.H{"title": "One", "content": "secret text", "order": 1, "price": 150})
	require.Equal(t, http.StatusCreated, code)
	chapterID := uint(chapter["id"].(float64))
	readPath := fmt.Sprintf("/novels/%d/chapters/%d", novelID, chapterID)

	code, view := s.do(http.MethodGet, readPath, readerToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, view["unlocked"])
	assert.NotContains(t, view["chapter"].(map[string]any), "content")

	code, _ = s.do(http.MethodPost, fmt.Sprintf("/coin/unlock/%d", chapterID), readerToken, nil)
	assert.Equal(t, http.StatusPaymentRequired, code)

	// slip top-up, reviewed by an admin
	code, slip := s.uploadSlip(readerToken, "200")
	require.Equal(t, http.StatusCreated, code)
	reqID := uint(slip["request"].(map[string]any)["id"].(float64))

	code, _ = s.do(http.MethodGet, "/admin/topups", readerToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, queue := s.do(http.MethodGet, "/admin/topups", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), queue["total"])

	code, balance := s.do(http.MethodGet, "/coin", readerToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), balance["coins"])

	code, _ = s.do(http.MethodPost, fmt.Sprintf("/admin/topups/%d/approve", reqID), adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, fmt.Sprintf("/admin/topups/%d/approve", reqID), adminToken, nil)
	assert.Equal(t, http.StatusConflict, code)

	// the approval revalidated the cached balance
	_, balance = s.do(http.MethodGet, "/coin", readerToken, nil)
	assert.Equal(t, float64(200), balance["coins"])
	assert.Equal(t, false, balance["cached"])

	code, _ = s.do(http.MethodPost, fmt.Sprintf("/coin/unlock/%d", chapterID), readerToken, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, fmt.Sprintf("/coin/unlock/%d", chapterID), readerToken, nil)
	assert.Equal(t, http.StatusConflict, code)

	_, view = s.do(http.MethodGet, readPath, readerToken, nil)
	assert.Equal(t, true, view["unlocked"])
	assert.Equal(t, "secret text", view["chapter"].(map[string]any)["content"])

	_, balance = s.do(http.MethodGet, "/coin", readerToken, nil)
	assert.Equal(t, float64(50), balance["coins"])

	code, history := s.do(http.MethodGet, "/coin/history", readerToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, history["topups"], 1)
	assert.Len(t, history["usages"], 1)
	assert.NotZero(t, readerID)
}

func TestWalletTopUp(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signup("reader")

	code, _ := s.do(http.MethodPost, "/coin/topup/wallet", token, gin.H{"link": "https://evil.example.com/?v=1"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := s.do(http.MethodPost, "/coin/topup/wallet", token, gin.H{"link": "https://gift.truemoney.com/campaign/?v=abc123"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(120), body["amount"])

	_, balance := s.do(http.MethodGet, "/coin", token, nil)
	assert.Equal(t, float64(120), balance["coins"])
}

func TestAdminUsersSeeCoinChanges(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.signup("boss")
	readerToken, _ := s.signup("reader")
	require.NoError(t, s.accounts.GrantAdmin(context.Background(), "boss"))

	coinsOf := func(username string) (float64, bool) {
		t.Helper()
		code, page := s.do(http.MethodGet, "/admin/users", adminToken, nil)
		require.Equal(t, http.StatusOK, code)
		for _, u := range page["users"].([]any) {
			user := u.(map[string]any)
			if user["username"] == username {
				return user["coins"].(float64), page["cached"].(bool)
			}
		}
		t.Fatalf("user %s not listed", username)
		return 0, false
	}

	coins, _ := coinsOf("reader")
	assert.Equal(t, float64(0), coins)
	_, cached := coinsOf("reader")
	require.True(t, cached)

	code, _ := s.do(http.MethodPost, "/coin/topup/wallet", readerToken, gin.H{"link": "https://gift.truemoney.com/campaign/?v=abc123"})
	require.Equal(t, http.StatusOK, code)
	coins, cached = coinsOf("reader")
	assert.False(t, cached)
	assert.Equal(t, float64(120), coins)

	code, novel := s.do(http.MethodPost, "/novels", adminToken, gin.H{"title": "Paid Story"})
	require.Equal(t, http.StatusCreated, code)
	code, chapter := s.do(http.MethodPost, fmt.Sprintf("/novels/%d/chapters", uint(novel["id"].(float64))), adminToken,
		gin.H{"title": "One", "content": "text", "order": 1, "price": 100})
	require.Equal(t, http.StatusCreated, code)

	_, cached = coinsOf("reader")
	require.True(t, cached)
	code, _ = s.do(http.MethodPost, fmt.Sprintf("/coin/unlock/%d", uint(chapter["id"].(float64))), readerToken, nil)
	require.Equal(t, http.StatusOK, code)
	coins, cached = coinsOf("reader")
	assert.False(t, cached)
	assert.Equal(t, float64(20), coins)
}

func TestSlipValidation(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signup("reader")

	code, _ := s.uploadSlip(token, "0")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.uploadSlip(token, "ten")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestQRCode(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signup("reader")

	code, body := s.do(http.MethodGet, "/coin/topup/qrcode?amount=99.50", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "99.50", body["amount"])
	assert.Contains(t, body["payload"], "540599.50")
	assert.Contains(t, body["qr_code"], "data:image/png;base64,")

	code, _ = s.do(http.MethodGet, "/coin/topup/qrcode?amount=-5", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(http.MethodGet, "/coin/topup/qrcode?amount=1.234", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestFeedCacheRevalidation(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signup("author")

	_, body := s.do(http.MethodGet, "/novels", "", nil)
	assert.Equal(t, false, body["cached"])
	_, body = s.do(http.MethodGet, "/novels", "", nil)
	assert.Equal(t, true, body["cached"])

	code, _ := s.do(http.MethodPost, "/novels", token, gin.H{"title": "Fresh"})
	require.Equal(t, http.StatusCreated, code)

	_, body = s.do(http.MethodGet, "/novels", "", nil)
	assert.Equal(t, false, body["cached"])
	assert.Equal(t, float64(1), body["total"])
}

func TestSocialRoutes(t *testing.T) {
	s := newTestServer(t)
	authorToken, _ := s.signup("author")
	readerToken, _ := s.signup("reader")

	_, novel := s.do(http.MethodPost, "/novels", authorToken, gin.H{"title": "Liked"})
	novelID := uint(novel["id"].(float64))

	code, body := s.do(http.MethodPost, fmt.Sprintf("/novels/%d/like", novelID), readerToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["liked"])
	_, body = s.do(http.MethodPost, fmt.Sprintf("/novels/%d/bookmark", novelID), readerToken, nil)
	assert.Equal(t, true, body["bookmarked"])

	code, comment := s.do(http.MethodPost, fmt.Sprintf("/novels/%d/comments", novelID), readerToken, gin.H{"content": "nice"})
	require.Equal(t, http.StatusCreated, code)

	_, detail := s.do(http.MethodGet, fmt.Sprintf("/novels/%d", novelID), readerToken, nil)
	assert.Equal(t, true, detail["liked"])
	assert.Equal(t, true, detail["bookmarked"])
	assert.Len(t, detail["comments"], 1)

	code, _ = s.do(http.MethodDelete, fmt.Sprintf("/comments/%d", uint(comment["id"].(float64))), authorToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPut, fmt.Sprintf("/novels/%d", novelID), readerToken, gin.H{"title": "Mine now"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodGet, "/novels/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
