package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	LLM       LLMConfig
	Scoring   ScoringConfig
	Session   SessionConfig
	Store     StoreConfig
	Scrape    ScrapeConfig
	Shortlist ShortlistConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// LLMConfig holds OpenAI-compatible API configuration
type LLMConfig struct {
	APIKey      string
	APIBase     string
	ChatModel   string
	Temperature float64
	MaxTokens   int
	Timeout     int // seconds
	Enabled     bool
}

// ScoringConfig holds relevance-scoring configuration
type ScoringConfig struct {
	BatchSize  int
	MaxRetries int
	BaseDelay  time.Duration
}

// SessionConfig holds conversation session store configuration
type SessionConfig struct {
	Backend   string // "memory" or "redis"
	RedisAddr string
	RedisDB   int
	TTL       time.Duration
}

// StoreConfig holds scraped-listings store configuration
type StoreConfig struct {
	Backend            string // "file" or "postgres"
	DataFile           string
	DSN                string
	MaxConnections     int
	MaxIdleConnections int
}

// ScrapeConfig holds crawler service configuration
type ScrapeConfig struct {
	CrawlerBaseURL string
	Timeout        int // seconds
}

// ShortlistConfig holds shortlist persistence configuration
type ShortlistConfig struct {
	DataFile string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			APIBase:     getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			ChatModel:   getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.3),
			MaxTokens:   getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 2048),
			Timeout:     getEnvAsInt("OPENAI_TIMEOUT", 60),
			Enabled:     getEnv("OPENAI_API_KEY", "") != "",
		},
		Scoring: ScoringConfig{
			BatchSize:  getEnvAsInt("SCORING_BATCH_SIZE", 10),
			MaxRetries: getEnvAsInt("SCORING_MAX_RETRIES", 3),
			BaseDelay:  time.Duration(getEnvAsInt("SCORING_BASE_DELAY_MS", 1000)) * time.Millisecond,
		},
		Session: SessionConfig{
			Backend:   getEnv("SESSION_BACKEND", "memory"),
			RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
			RedisDB:   getEnvAsInt("REDIS_DB", 0),
			TTL:       time.Duration(getEnvAsInt("SESSION_TTL_MINUTES", 120)) * time.Minute,
		},
		Store: StoreConfig{
			Backend:            getEnv("STORE_BACKEND", "file"),
			DataFile:           getEnv("STORE_DATA_FILE", "scraped_properties.json"),
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Scrape: ScrapeConfig{
			CrawlerBaseURL: getEnv("CRAWLER_BASE_URL", "http://localhost:9000"),
			Timeout:        getEnvAsInt("CRAWLER_TIMEOUT", 120),
		},
		Shortlist: ShortlistConfig{
			DataFile: getEnv("SHORTLIST_DATA_FILE", "shortlists.json"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if cfg.Store.Backend == "postgres" && cfg.Store.DSN == "" {
		return nil, fmt.Errorf("STORE_BACKEND=postgres requires DATABASE_URL or PG_DSN")
	}

	return cfg, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}
