package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseURL string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// JWT
	JWTSecret string

	// OAuth - Google
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Sync
	SyncMaxMessages  int
	SyncFetchWorkers int
	SyncLockTTL      time.Duration
	PlatformKeyword  string
	SearchQueries    []string

	// Snowflake
	NodeID int

	// Cache
	CacheOrderTTLMin int
	OAuthStateTTL    time.Duration

	// Raw message cache
	MessageCacheTTLDays int

	// CORS
	AllowedOrigins []string

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "tracker"),
		RedisURL:    getEnv("REDIS_URL", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		// OAuth - Google
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),

		// Sync
		SyncMaxMessages:  getEnvInt("SYNC_MAX_MESSAGES", 20),
		SyncFetchWorkers: getEnvInt("SYNC_FETCH_WORKERS", 5),
		SyncLockTTL:      time.Duration(getEnvInt("SYNC_LOCK_TTL_SEC", 120)) * time.Second,
		PlatformKeyword:  getEnv("PLATFORM_KEYWORD", "tiktok"),
		SearchQueries: getEnvSlice("SEARCH_QUERIES", []string{
			`from:"TikTok Shop"`,
			"from:tiktokshop",
			"from:noreply@tiktok",
		}),

		// Snowflake
		NodeID: getEnvInt("NODE_ID", 1),

		// Cache
		CacheOrderTTLMin: getEnvInt("CACHE_ORDER_TTL_MIN", 5),
		OAuthStateTTL:    time.Duration(getEnvInt("OAUTH_STATE_TTL_MIN", 10)) * time.Minute,

		// Raw message cache
		MessageCacheTTLDays: getEnvInt("MESSAGE_CACHE_TTL_DAYS", 30),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
