// Package config provides configuration management for the integration gateway.
// Configuration is read once from environment variables (optionally seeded from a
// .env file by the caller), validated, and then passed by pointer to the
// components that need it. Nothing in the core reads the environment directly.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FORMAT: "console" or "json" (default: console)
//
// Caching:
//   - CACHE_TYPE: "redis", "memory" or "tiered" (default: redis)
//   - CACHE_DATA_TTL_MS: default entry TTL in milliseconds (default: 3600000)
//   - CACHE_KEY_PREFIX: prefix applied to Redis keys (default: empty)
//   - CACHE_WRITE_TIMEOUT: timeout for background cache writes (default: 5s)
//   - CACHE_L1_MAX_TTL: upper bound for in-process entries of the tiered cache (default: 1m)
//
// Outbound Calls:
//   - MAX_RESPONSE_MEMORY_SIZE: maximum buffered response size in bytes (default: 10485760)
//   - HTTP_CLIENT_TIMEOUT: outbound HTTP client timeout (default: 30s)
//   - FINGERPRINT_SECRET: HMAC secret for request fingerprints (required, min 16 chars)
//
// Queue:
//   - BROKER_TYPE: kafka, rabbitmq, redis, aws or gcp (default: kafka)
//   - QUEUE_CREATE_TOPIC: topic for fire-and-forget requests
//   - WORKER_ENABLED: consume the topic in this process (default: false)
//   - KAFKA_BROKERS, KAFKA_CLIENT_ID, KAFKA_GROUP_ID
//   - RABBITMQ_URL, RABBITMQ_POOL_SIZE
//   - REDIS_ADDRESS, REDIS_PASSWORD, REDIS_DB, REDIS_POOL_SIZE
//   - AWS_REGION, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_SQS_QUEUE_URL, AWS_SNS_TOPIC_ARN
//   - GCP_PROJECT_ID, GCP_TOPIC_ID, GCP_SUBSCRIPTION_ID, GCP_CREDENTIALS_PATH
//
// Example usage:
//
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid configuration: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the integration gateway.
type Config struct {
	// Application settings
	Port      string
	LogLevel  string
	LogFormat string

	// Cache settings
	CacheType         string
	CacheDataTTLMs    int64 // default TTL, milliseconds
	CacheKeyPrefix    string
	CacheWriteTimeout time.Duration
	CacheL1MaxTTL     time.Duration

	// Outbound call settings
	MaxResponseMemorySize int64
	HTTPClientTimeout     time.Duration
	FingerprintSecret     string

	// Queue settings
	BrokerType       string
	QueueCreateTopic string
	WorkerEnabled    bool

	KafkaBrokers  []string
	KafkaClientID string
	KafkaGroupID  string

	RabbitMQURL      string
	RabbitMQPoolSize int

	RedisAddress  string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSQueueURL        string
	AWSTopicArn        string

	GCPProjectID       string
	GCPTopicID         string
	GCPSubscriptionID  string
	GCPCredentialsPath string
}

// Load creates a new Config instance with values loaded from environment variables.
// If an environment variable is not set or cannot be parsed, the default is used.
//
// This function does not validate the configuration - call Validate() on the
// returned Config before use.
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		CacheType:         strings.ToLower(getEnv("CACHE_TYPE", "redis")),
		CacheDataTTLMs:    getInt64Env("CACHE_DATA_TTL_MS", 3600000),
		CacheKeyPrefix:    getEnv("CACHE_KEY_PREFIX", ""),
		CacheWriteTimeout: getDurationEnv("CACHE_WRITE_TIMEOUT", 5*time.Second),
		CacheL1MaxTTL:     getDurationEnv("CACHE_L1_MAX_TTL", time.Minute),

		MaxResponseMemorySize: getInt64Env("MAX_RESPONSE_MEMORY_SIZE", 10*1024*1024),
		HTTPClientTimeout:     getDurationEnv("HTTP_CLIENT_TIMEOUT", 30*time.Second),
		FingerprintSecret:     getEnv("FINGERPRINT_SECRET", ""),

		BrokerType:       strings.ToLower(getEnv("BROKER_TYPE", "kafka")),
		QueueCreateTopic: getEnv("QUEUE_CREATE_TOPIC", "integration-create-external-call"),
		WorkerEnabled:    getBoolEnv("WORKER_ENABLED", false),

		KafkaBrokers:  getListEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaClientID: getEnv("KAFKA_CLIENT_ID", "integration-gateway"),
		KafkaGroupID:  getEnv("KAFKA_GROUP_ID", "integration-gateway-group"),

		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPoolSize: getIntEnv("RABBITMQ_POOL_SIZE", 5),

		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		RedisPoolSize: getIntEnv("REDIS_POOL_SIZE", 10),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSQueueURL:        getEnv("AWS_SQS_QUEUE_URL", ""),
		AWSTopicArn:        getEnv("AWS_SNS_TOPIC_ARN", ""),

		GCPProjectID:       getEnv("GCP_PROJECT_ID", ""),
		GCPTopicID:         getEnv("GCP_TOPIC_ID", ""),
		GCPSubscriptionID:  getEnv("GCP_SUBSCRIPTION_ID", ""),
		GCPCredentialsPath: getEnv("GCP_CREDENTIALS_PATH", ""),
	}
}

// DefaultCacheTTL returns the process-wide cache TTL. The setting is
// expressed in milliseconds, unlike the per-request override which is in minutes.
func (c *Config) DefaultCacheTTL() time.Duration {
	return time.Duration(c.CacheDataTTLMs) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getListEnv splits a comma separated variable, dropping empty items
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

// Validate checks required fields, value ranges and the settings required by
// the selected cache and broker backends.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	if c.FingerprintSecret == "" {
		return fmt.Errorf("FINGERPRINT_SECRET environment variable is required")
	}
	if len(c.FingerprintSecret) < 16 {
		return fmt.Errorf("FINGERPRINT_SECRET must be at least 16 characters long")
	}

	if c.CacheDataTTLMs <= 0 {
		return fmt.Errorf("CACHE_DATA_TTL_MS must be a positive number of milliseconds")
	}
	if c.CacheWriteTimeout <= 0 {
		return fmt.Errorf("CACHE_WRITE_TIMEOUT must be a positive duration")
	}
	if c.MaxResponseMemorySize <= 0 {
		return fmt.Errorf("MAX_RESPONSE_MEMORY_SIZE must be a positive number of bytes")
	}

	switch c.CacheType {
	case "memory":
	case "redis", "tiered":
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS is required when CACHE_TYPE is %s", c.CacheType)
		}
		if c.RedisDB < 0 || c.RedisDB > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if c.RedisPoolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
		if c.CacheType == "tiered" && c.CacheL1MaxTTL <= 0 {
			return fmt.Errorf("CACHE_L1_MAX_TTL must be a positive duration")
		}
	default:
		return fmt.Errorf("CACHE_TYPE must be 'redis', 'memory' or 'tiered'")
	}

	if c.QueueCreateTopic == "" {
		return fmt.Errorf("QUEUE_CREATE_TOPIC is required")
	}

	switch c.BrokerType {
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when BROKER_TYPE is kafka")
		}
	case "rabbitmq":
		if c.RabbitMQURL == "" {
			return fmt.Errorf("RABBITMQ_URL is required when BROKER_TYPE is rabbitmq")
		}
	case "redis":
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS is required when BROKER_TYPE is redis")
		}
	case "aws":
		if c.AWSQueueURL == "" && c.AWSTopicArn == "" {
			return fmt.Errorf("AWS_SQS_QUEUE_URL or AWS_SNS_TOPIC_ARN is required when BROKER_TYPE is aws")
		}
	case "gcp":
		if c.GCPProjectID == "" || c.GCPTopicID == "" {
			return fmt.Errorf("GCP_PROJECT_ID and GCP_TOPIC_ID are required when BROKER_TYPE is gcp")
		}
	default:
		return fmt.Errorf("BROKER_TYPE must be one of kafka, rabbitmq, redis, aws, gcp")
	}

	return nil
}
