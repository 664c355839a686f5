package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds the whole application configuration, populated from env
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Loyalty  LoyaltyConfig
	Jobs     JobConfig
	Email    EmailConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
	// Comma separated list, "*" allows any origin
	CORSOrigins string
	// Apply CREATE TABLE IF NOT EXISTS on startup
	AutoMigrate bool
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type RedisConfig struct {
	Host            string
	Password        string
	DB              int
	CachePrefix     string
	ProductCacheTTL time.Duration
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // minutes
}

func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.AccessTokenExpiry) * time.Minute
}

// LoyaltyConfig controls the points economy around settlement
type LoyaltyConfig struct {
	SignupBonusPoints  int
	SignupBonusBalance decimal.Decimal
	// Products at or below this stock after a checkout trigger a low stock job
	LowStockThreshold int
}

// JobConfig controls the background worker and scheduler
type JobConfig struct {
	WorkerConcurrency int
	ReconcileCron     string
	ReconcileLimit    int
	HealthPort        string
}

type EmailConfig struct {
	Enabled    bool
	SMTPHost   string
	SMTPPort   string
	From       string
	AdminEmail string
}

// Load reads config from environment variables
func Load() (*Config, error) {
	bonusBalance, err := decimal.NewFromString(getEnv("LOYALTY_SIGNUP_BALANCE", "9999.00"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOYALTY_SIGNUP_BALANCE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Points Shop API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "pointshop"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:            getEnv("REDIS_HOST", "localhost:6379"),
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              getEnvInt("REDIS_DB", 0),
			CachePrefix:     getEnv("REDIS_CACHE_PREFIX", "pointshop"),
			ProductCacheTTL: getEnvDuration("PRODUCT_CACHE_TTL", 5*time.Minute),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry: getEnvInt("JWT_ACCESS_EXPIRY", 24*60),
		},
		Loyalty: LoyaltyConfig{
			SignupBonusPoints:  getEnvInt("LOYALTY_SIGNUP_POINTS", 9999),
			SignupBonusBalance: bonusBalance,
			LowStockThreshold:  getEnvInt("LOYALTY_LOW_STOCK_THRESHOLD", 5),
		},
		Jobs: JobConfig{
			WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 10),
			ReconcileCron:     getEnv("JOB_RECONCILE_CRON", "0 * * * *"),
			ReconcileLimit:    getEnvInt("JOB_RECONCILE_LIMIT", 500),
			HealthPort:        getEnv("WORKER_HEALTH_PORT", "9999"),
		},
		Email: EmailConfig{
			Enabled:    getEnvBool("EMAIL_ENABLED", false),
			SMTPHost:   getEnv("SMTP_HOST", "localhost"),
			SMTPPort:   getEnv("SMTP_PORT", "1025"),
			From:       getEnv("EMAIL_FROM", "noreply@pointshop.dev"),
			AdminEmail: getEnv("EMAIL_ADMIN", "admin@pointshop.dev"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations that must not reach production
func (c *Config) Validate() error {
	if c.App.Environment == "production" {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	if c.JWT.AccessTokenExpiry <= 0 {
		return fmt.Errorf("JWT_ACCESS_EXPIRY must be positive")
	}
	if c.Loyalty.SignupBonusPoints < 0 || c.Loyalty.SignupBonusBalance.IsNegative() {
		return fmt.Errorf("signup bonus must not be negative")
	}
	if c.Loyalty.LowStockThreshold < 0 {
		return fmt.Errorf("LOYALTY_LOW_STOCK_THRESHOLD must not be negative")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
