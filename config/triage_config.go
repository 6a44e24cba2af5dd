package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// generateConsumerName creates a unique consumer name using hostname and PID
func generateConsumerName() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "triage"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseURL string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// OpenAI
	OpenAIAPIKey   string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64

	// Ranker
	UrgencyWeight  float64
	WaitWeight     float64
	ReopenWeight   float64
	CategoryWeight float64
	WaitCap        time.Duration

	// Metrics aggregator
	AggregatorMaxRetries int
	MetricsCacheTTL      time.Duration

	// Worker pool
	PoolWorkers        int
	PoolBatchSize      int
	PoolWorkerChanSize int
	PoolMaxRetries     int

	// Consumer (Redis Stream)
	ConsumerGroup string
	ConsumerName  string

	// ID generation
	SnowflakeNodeID int64

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "triage"),
		RedisURL:    getEnv("REDIS_URL", ""),

		// OpenAI
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 1024),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.7),

		// Ranker
		UrgencyWeight:  getEnvFloat("URGENCY_WEIGHT", 10),
		WaitWeight:     getEnvFloat("WAIT_WEIGHT", 1),
		ReopenWeight:   getEnvFloat("REOPEN_WEIGHT", 5),
		CategoryWeight: getEnvFloat("CATEGORY_WEIGHT", 3),
		WaitCap:        time.Duration(getEnvInt("WAIT_CAP_MIN", 240)) * time.Minute,

		// Metrics aggregator
		AggregatorMaxRetries: getEnvInt("AGGREGATOR_MAX_RETRIES", 5),
		MetricsCacheTTL:      time.Duration(getEnvInt("METRICS_CACHE_TTL_SEC", 30)) * time.Second,

		// Worker pool
		PoolWorkers:        getEnvInt("POOL_WORKERS", 8),
		PoolBatchSize:      getEnvInt("POOL_BATCH_SIZE", 10),
		PoolWorkerChanSize: getEnvInt("POOL_WORKER_CHAN_SIZE", 100),
		PoolMaxRetries:     getEnvInt("POOL_MAX_RETRIES", 3),

		// Consumer
		ConsumerGroup: getEnv("CONSUMER_GROUP", "triage-workers"),
		ConsumerName:  getEnv("CONSUMER_NAME", generateConsumerName()),

		// ID generation
		SnowflakeNodeID: int64(getEnvInt("SNOWFLAKE_NODE_ID", 1)),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
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
