package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional: storage is disabled when URL is empty)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Data provider
	Yahoo YahooConfig

	// Screening
	Screen ScreenConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// YahooConfig holds Yahoo Finance client configuration
type YahooConfig struct {
	BaseURL   string
	PageURL   string
	RateLimit int // requests per second
	Timeout   time.Duration
	CacheTTL  time.Duration
	Retry     bool // false: fail fast, the scheduler retries whole jobs
}

// ScreenConfig holds screening pipeline configuration
type ScreenConfig struct {
	StrategyPath string // strategy YAML (optional)
	DataDir      string // CSV snapshot directory
	Region       string // us, cn, hk
	Workers      int    // collector worker count
	RefreshCron  string // scheduler expression (with seconds)
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Yahoo: YahooConfig{
			BaseURL:   getEnv("YAHOO_BASE_URL", "https://query2.finance.yahoo.com"),
			PageURL:   getEnv("YAHOO_PAGE_URL", "https://finance.yahoo.com"),
			RateLimit: getEnvAsInt("YAHOO_RATE_LIMIT", 5),
			Timeout:   getEnvAsDuration("YAHOO_TIMEOUT", "30s"),
			CacheTTL:  getEnvAsDuration("YAHOO_CACHE_TTL", "0s"), // 0 = redis.TTLDaily
			Retry:     getEnvAsBool("YAHOO_RETRY", true),
		},

		Screen: ScreenConfig{
			StrategyPath: getEnv("SCREEN_STRATEGY_PATH", ""),
			DataDir:      getEnv("SCREEN_DATA_DIR", "data"),
			Region:       getEnv("SCREEN_REGION", "us"),
			Workers:      getEnvAsInt("SCREEN_WORKERS", 5),
			RefreshCron:  getEnv("REFRESH_CRON", "0 30 6 * * 1-5"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFrom loads envFile first (when set), then reads the environment like Load
func LoadFrom(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}
	return Load()
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Screen.Workers <= 0 {
		return fmt.Errorf("SCREEN_WORKERS must be > 0")
	}

	if c.Yahoo.RateLimit <= 0 {
		return fmt.Errorf("YAHOO_RATE_LIMIT must be > 0")
	}

	switch c.Screen.Region {
	case "us", "cn", "hk":
	default:
		return fmt.Errorf("SCREEN_REGION must be one of: us, cn, hk")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
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

func getEnvAsBool(key string, defaultValue bool) bool {
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

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
