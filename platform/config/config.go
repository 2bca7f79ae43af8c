// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq evaluation queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetEvaluationUniqueWindow() time.Duration
}

// LocalTriggerConfig provides settings for the in-process evaluation pool
// used when no Redis queue is configured.
type LocalTriggerConfig interface {
	GetLocalWorkers() int
	GetLocalQueueSize() int
	GetEvaluationTimeout() time.Duration
}

// LLMConfig provides process-wide defaults for the evaluation model.
type LLMConfig interface {
	GetLLMAPIKey() string
	GetLLMBaseURL() string
	GetLLMModel() string
	GetLLMTimeout() time.Duration
	GetLLMRatePerSecond() float64
	GetLLMBurst() int
}

// CacheConfig provides settings for the product catalog cache.
type CacheConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetCatalogCacheTTL() time.Duration
	IsCatalogCacheEnabled() bool
}

// KafkaConfig provides settings for the analytics event stream.
type KafkaConfig interface {
	GetKafkaBrokers() []string
	GetKafkaEventsTopic() string
	IsKafkaEnabled() bool
}

// AnalyticsConfig provides settings for the fire-and-forget event recorder.
type AnalyticsConfig interface {
	GetAnalyticsWorkers() int
	GetAnalyticsQueueSize() int
}

// EvaluationDefaultsConfig points at an optional YAML file that overrides the
// built-in tenant evaluation defaults.
type EvaluationDefaultsConfig interface {
	GetEvaluationDefaultsFile() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env              string
	HTTPAddr         string
	DatabaseURL      string
	CORSAllowAll     bool
	CORSOrigins      []string
	CORSAllowCreds   bool
	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
	UniqueWindow     time.Duration
	LocalWorkers     int
	LocalQueueSize   int
	EvalTimeout      time.Duration
	LLMAPIKey        string
	LLMBaseURL       string
	LLMModel         string
	LLMTimeout       time.Duration
	LLMRatePerSecond float64
	LLMBurst         int
	CatalogCacheTTL  time.Duration
	KafkaBrokers     []string
	KafkaEventsTopic string
	AnalyticsWorkers int
	AnalyticsQueue   int
	DefaultsFile     string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                      { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool                { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string                { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int                 { return c.AsynqConcurrency }
func (c *Config) GetEvaluationUniqueWindow() time.Duration { return c.UniqueWindow }

// LocalTriggerConfig implementation
func (c *Config) GetLocalWorkers() int                { return c.LocalWorkers }
func (c *Config) GetLocalQueueSize() int              { return c.LocalQueueSize }
func (c *Config) GetEvaluationTimeout() time.Duration { return c.EvalTimeout }

// LLMConfig implementation
func (c *Config) GetLLMAPIKey() string         { return c.LLMAPIKey }
func (c *Config) GetLLMBaseURL() string        { return c.LLMBaseURL }
func (c *Config) GetLLMModel() string          { return c.LLMModel }
func (c *Config) GetLLMTimeout() time.Duration { return c.LLMTimeout }
func (c *Config) GetLLMRatePerSecond() float64 { return c.LLMRatePerSecond }
func (c *Config) GetLLMBurst() int             { return c.LLMBurst }

// CacheConfig implementation
func (c *Config) GetCatalogCacheTTL() time.Duration { return c.CatalogCacheTTL }
func (c *Config) IsCatalogCacheEnabled() bool {
	return c.RedisURL != "" && c.CatalogCacheTTL > 0
}

// KafkaConfig implementation
func (c *Config) GetKafkaBrokers() []string   { return c.KafkaBrokers }
func (c *Config) GetKafkaEventsTopic() string { return c.KafkaEventsTopic }
func (c *Config) IsKafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaEventsTopic != ""
}

// AnalyticsConfig implementation
func (c *Config) GetAnalyticsWorkers() int   { return c.AnalyticsWorkers }
func (c *Config) GetAnalyticsQueueSize() int { return c.AnalyticsQueue }

// EvaluationDefaultsConfig implementation
func (c *Config) GetEvaluationDefaultsFile() string { return c.DefaultsFile }

// =============================================================================
// Config Loading
// =============================================================================

// Load reads configuration from the environment, after loading an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		CORSAllowAll:     getEnvBool("CORS_ALLOW_ALL", false),
		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		CORSAllowCreds:   getEnvBool("CORS_ALLOW_CREDENTIALS", true),
		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: getEnvBool("REDIS_TLS_INSECURE", false),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "evaluations"),
		AsynqConcurrency: int(mustInt64(getEnv("ASYNQ_CONCURRENCY", "10"))),
		UniqueWindow:     mustDuration(getEnv("EVALUATION_UNIQUE_WINDOW", "10m")),
		LocalWorkers:     int(mustInt64(getEnv("EVALUATION_LOCAL_WORKERS", "4"))),
		LocalQueueSize:   int(mustInt64(getEnv("EVALUATION_LOCAL_QUEUE", "256"))),
		EvalTimeout:      mustDuration(getEnv("EVALUATION_TIMEOUT", "2m")),
		LLMAPIKey:        getEnv("LLM_API_KEY", ""),
		LLMBaseURL:       getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMModel:         getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout:       mustDuration(getEnv("LLM_TIMEOUT", "60s")),
		LLMRatePerSecond: mustFloat64(getEnv("LLM_RATE_PER_SECOND", "5")),
		LLMBurst:         int(mustInt64(getEnv("LLM_BURST", "5"))),
		CatalogCacheTTL:  mustDuration(getEnv("CATALOG_CACHE_TTL", "15m")),
		KafkaBrokers:     splitCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaEventsTopic: getEnv("KAFKA_EVENTS_TOPIC", "crm.analytics.events"),
		AnalyticsWorkers: int(mustInt64(getEnv("ANALYTICS_WORKERS", "2"))),
		AnalyticsQueue:   int(mustInt64(getEnv("ANALYTICS_QUEUE", "1024"))),
		DefaultsFile:     getEnv("EVALUATION_DEFAULTS_FILE", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return parsed
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat64(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
