package config

import (
	"errors" // Validation errors
	"fmt"    // Error wrapping and DSN formatting
	"time"   // Durations for cache and HTTP timeouts

	"github.com/caarlos0/env/v11" // Struct tag based env parsing
	"github.com/joho/godotenv"    // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"8080"`  // Application port
	IsProd   bool   `env:"IS_PROD" envDefault:"false"`  // Is production environment
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"` // Logrus level name

	DBUser     string `env:"DB_USER" envDefault:"root"`      // Database user
	DBPassword string `env:"DB_PASSWORD"`                    // Database password
	DBHost     string `env:"DB_HOST" envDefault:"127.0.0.1"` // Database host
	DBPort     string `env:"DB_PORT" envDefault:"3306"`      // Database port
	DBName     string `env:"DB_NAME" envDefault:"novel"`     // Database name

	JWTSecret string `env:"JWT_SECRET"` // JWT secret key

	RedisAddr string        `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"` // Redis server address
	RedisPass string        `env:"REDIS_PASS"`                             // Redis password
	RedisDB   int           `env:"REDIS_DB" envDefault:"0"`                // Redis database number
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"60s"`             // Read-through cache TTL

	UploadDir      string `env:"UPLOAD_DIR" envDefault:"public"`        // Root for uploaded files
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"` // Largest accepted slip image

	WalletPhone   string        `env:"WALLET_PHONE"`                                            // Phone receiving voucher redemptions
	WalletBaseURL string        `env:"WALLET_BASE_URL" envDefault:"https://gift.truemoney.com"` // Voucher API base
	WalletTimeout time.Duration `env:"WALLET_TIMEOUT" envDefault:"10s"`                         // Voucher API timeout

	PromptPayID string `env:"PROMPTPAY_ID"` // Phone or tax id receiving PromptPay transfers
}

// LoadConfig loads configuration from .env and environment variables
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings only the HTTP server needs
func (c *Config) Validate() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("JWT_SECRET is required")
	case c.CacheTTL <= 0:
		return errors.New("CACHE_TTL must be positive")
	case c.MaxUploadBytes <= 0:
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// DSN builds the MySQL data source name
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}
