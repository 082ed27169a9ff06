// Package config provides environment configuration for the assistant service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// MySQL settings
	MySQLDSN string

	// Milvus settings
	MilvusAddress    string
	MilvusCollection string

	// Redis settings
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// NATS settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings
	JWTSecret     string
	JWTExpiration time.Duration

	// LLM settings
	OpenAIAPIKey    string
	AnthropicAPIKey string
	AgentModel      string
	TitleModel      string
	EmbeddingModel  string
	EmbeddingDim    int
	LLMTimeout      time.Duration

	// Agent settings
	MaxIterations    int
	HistoryWindow    int
	MaxPromptTokens  int
	SearchThreshold  float32
	DailyCostLimit   float64
	AnonymousAllowed bool

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Reload
	ReloadInterval time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// MySQL
		MySQLDSN: getEnv("MYSQL_DSN", "vibelog:vibelog@tcp(localhost:3306)/vibelog?charset=utf8mb4&parseTime=True&loc=UTC"),

		// Milvus
		MilvusAddress:    getEnv("MILVUS_ADDRESS", "localhost:19530"),
		MilvusCollection: getEnv("MILVUS_COLLECTION", "content_embeddings"),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		// NATS
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret:     getEnv("JWT_SECRET", "development-secret-change-in-production"),
		JWTExpiration: getDurationEnv("JWT_EXPIRATION", 15*time.Minute),

		// LLM
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AgentModel:      getEnv("AGENT_MODEL", "gpt-4o-mini"),
		TitleModel:      getEnv("TITLE_MODEL", "claude-3-5-haiku-20241022"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDim:    getIntEnv("EMBEDDING_DIM", 1536),
		LLMTimeout:      getDurationEnv("LLM_TIMEOUT", 60*time.Second),

		// Agent
		MaxIterations:    getIntEnv("AGENT_MAX_ITERATIONS", 3),
		HistoryWindow:    getIntEnv("AGENT_HISTORY_WINDOW", 10),
		MaxPromptTokens:  getIntEnv("AGENT_MAX_PROMPT_TOKENS", 12000),
		SearchThreshold:  getFloatEnv("AGENT_SEARCH_THRESHOLD", 0.6),
		DailyCostLimit:   getFloat64Env("DAILY_COST_LIMIT_USD", 50.0),
		AnonymousAllowed: getBoolEnv("ANONYMOUS_ALLOWED", true),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Reload
		ReloadInterval: getDurationEnv("CONFIG_RELOAD_INTERVAL", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(f)
		}
	}
	return defaultValue
}

func getFloat64Env(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
