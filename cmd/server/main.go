package main

import (
	"context"   // context package is needed for Redis operations and shutdown
	"errors"    // Server close detection
	"net/http"  // HTTP server
	"os"        // Exit codes
	"os/signal" // Graceful shutdown
	"syscall"   // Termination signals
	"time"      // Timeouts

	"novel_platform/internal/api"     // Custom package for API handlers
	"novel_platform/internal/config"  // Custom package for configuration
	"novel_platform/internal/db"      // Database connection
	"novel_platform/internal/metrics" // Prometheus collectors
	"novel_platform/internal/service" // Business services
	"novel_platform/internal/upload"  // Slip storage
	"novel_platform/internal/wallet"  // TrueMoney voucher client

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Error("Server stopped")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg.DSN(), !cfg.IsProd)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}()

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return err
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Register()

	if cfg.WalletPhone == "" {
		logrus.Warn("WALLET_PHONE is not set, voucher top-ups will fail")
	}
	accounts := service.NewAccountService(gdb)
	router, err := api.NewRouter(api.Deps{
		Accounts:       accounts,
		Catalog:        service.NewCatalogService(gdb),
		Social:         service.NewSocialService(gdb),
		Coins:          service.NewCoinService(gdb, wallet.NewClient(cfg.WalletBaseURL, cfg.WalletPhone, cfg.WalletTimeout)),
		Reviews:        service.NewReviewService(gdb),
		Uploads:        upload.NewStore(cfg.UploadDir, cfg.MaxUploadBytes),
		Redis:          redisClient,
		JWTSecret:      cfg.JWTSecret,
		CacheTTL:       cfg.CacheTTL,
		PromptPayID:    cfg.PromptPayID,
		TrustedProxies: []string{"127.0.0.1"},
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("port", cfg.AppPort).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogger(cfg *config.Config) {
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
