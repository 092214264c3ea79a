package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingAPIKey is returned by Load when no API credential is configured
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY environment variable is required")

// Config holds all configuration for the application
type Config struct {
	OpenAI     OpenAIConfig
	Memory     MemoryConfig
	RateLimit  RateLimitConfig
	Data       DataConfig
	Retrieval  RetrievalConfig
	Models     ModelsConfig
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Logging    LoggingConfig
}

// OpenAIConfig holds OpenAI-compatible API configuration
type OpenAIConfig struct {
	APIKey             string
	APIBase            string
	ChatModel          string
	ChatTemperature    float64
	ChatMaxTokens      int
	ChatExtraBody      string // JSON string for extra_body
	EmbeddingModel     string
	EmbeddingExtraBody string
	BatchSize          int
	Timeout            int // seconds
}

// MemoryConfig holds conversational memory configuration
type MemoryConfig struct {
	MaxMessages      int // messages kept verbatim in the context window
	SummaryThreshold int // message count that triggers summarization
	Backend          string
	FilePath         string
	SQLitePath       string
	MaxSessions      int // live per-session chatbots kept by the HTTP server
}

// RateLimitConfig holds outbound model call throttling
type RateLimitConfig struct {
	MaxRequestsPerMinute int
}

// DataConfig holds catalog and training data locations
type DataConfig struct {
	PropertiesFile string
	TrainingFile   string
}

// RetrievalConfig holds retrieval index configuration
type RetrievalConfig struct {
	Backend          string // memory or pgvector
	TopK             int
	IntentExtraction bool
}

// ModelsConfig holds saved-model artifact locations
type ModelsConfig struct {
	Dir string
}

// PostgreSQLConfig holds PostgreSQL configuration for the pgvector backend
type PostgreSQLConfig struct {
	DSN                string
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// Load reads configuration from environment variables.
// A missing API credential is a hard failure.
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		OpenAI: OpenAIConfig{
			APIKey:             getEnv("OPENAI_API_KEY", ""),
			APIBase:            strings.TrimRight(getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"), "/"),
			ChatModel:          getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
			ChatTemperature:    getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.7),
			ChatMaxTokens:      getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 0),
			ChatExtraBody:      getEnv("OPENAI_CHAT_EXTRA_BODY", ""),
			EmbeddingModel:     getEnv("EMBEDDING_MODEL", "text-embedding-ada-002"),
			EmbeddingExtraBody: getEnv("OPENAI_EMBEDDING_EXTRA_BODY", ""),
			BatchSize:          getEnvAsInt("OPENAI_BATCH_SIZE", 100),
			Timeout:            getEnvAsInt("OPENAI_TIMEOUT", 60),
		},
		Memory: MemoryConfig{
			MaxMessages:      getEnvAsInt("MAX_MEMORY_MESSAGES", 10),
			SummaryThreshold: getEnvAsInt("MEMORY_SUMMARY_THRESHOLD", 5),
			Backend:          strings.ToLower(getEnv("MEMORY_BACKEND", "file")),
			FilePath:         getEnv("MEMORY_FILE", filepath.Join("data", "conversation_memory.json")),
			SQLitePath:       getEnv("MEMORY_SQLITE_PATH", filepath.Join("data", "conversations.db")),
			MaxSessions:      getEnvAsInt("MAX_SESSIONS", 1000),
		},
		RateLimit: RateLimitConfig{
			MaxRequestsPerMinute: getEnvAsInt("MAX_REQUESTS_PER_MINUTE", 60),
		},
		Data: DataConfig{
			PropertiesFile: getEnv("PROPERTIES_FILE", filepath.Join("data", "properties.csv")),
			TrainingFile:   getEnv("TRAINING_FILE", filepath.Join("data", "training", "conversations.json")),
		},
		Retrieval: RetrievalConfig{
			Backend:          strings.ToLower(getEnv("RETRIEVAL_BACKEND", "memory")),
			TopK:             getEnvAsInt("RETRIEVAL_TOP_K", 4),
			IntentExtraction: getEnvAsBool("INTENT_EXTRACTION", false),
		},
		Models: ModelsConfig{
			Dir: getEnv("MODEL_DIR", "models"),
		},
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "rentalbot"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 2),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Logging: LoggingConfig{
			Level: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings that must hold before any component is built
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.RateLimit.MaxRequestsPerMinute <= 0 {
		return fmt.Errorf("MAX_REQUESTS_PER_MINUTE must be positive, got %d", c.RateLimit.MaxRequestsPerMinute)
	}
	if c.Memory.MaxMessages <= 0 {
		return fmt.Errorf("MAX_MEMORY_MESSAGES must be positive, got %d", c.Memory.MaxMessages)
	}
	if c.Memory.SummaryThreshold <= 0 {
		return fmt.Errorf("MEMORY_SUMMARY_THRESHOLD must be positive, got %d", c.Memory.SummaryThreshold)
	}
	switch c.Memory.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unknown MEMORY_BACKEND %q (want file or sqlite)", c.Memory.Backend)
	}
	switch c.Retrieval.Backend {
	case "memory", "pgvector":
	default:
		return fmt.Errorf("unknown RETRIEVAL_BACKEND %q (want memory or pgvector)", c.Retrieval.Backend)
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 4
	}
	if c.OpenAI.BatchSize <= 0 {
		c.OpenAI.BatchSize = 100
	}
	return nil
}

// MinRequestInterval is the minimum spacing between outbound model calls
func (c *Config) MinRequestInterval() time.Duration {
	return time.Minute / time.Duration(c.RateLimit.MaxRequestsPerMinute)
}

// VectorStorePath returns the saved retrieval index location
func (c *Config) VectorStorePath() string {
	return filepath.Join(c.Models.Dir, "vector_store.json")
}

// ChainConfigPath returns the saved generation configuration location
func (c *Config) ChainConfigPath() string {
	return filepath.Join(c.Models.Dir, "chain_config.json")
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}
