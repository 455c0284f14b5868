package redis

import (
	"fmt"
	"time"

	"integration-gateway/internal/common/config"
)

type Config struct {
	config.BaseConnConfig

	Address  string
	Password string
	DB       int
	PoolSize int
	// StreamMaxLen caps each stream approximately; 0 means no limit
	StreamMaxLen  int64
	ConsumerGroup string
	ConsumerName  string
}

func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("redis address is required")
	}
	if c.DB < 0 || c.DB > 15 {
		return fmt.Errorf("redis db must be between 0 and 15")
	}

	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.StreamMaxLen < 0 {
		c.StreamMaxLen = 0
	}
	if c.ConsumerGroup == "" {
		c.ConsumerGroup = "integration-gateway-group"
	}
	if c.ConsumerName == "" {
		c.ConsumerName = "integration-gateway-consumer"
	}
	c.SetConnectionDefaults(5 * time.Second)

	return nil
}

func (c *Config) GetType() string {
	return "redis"
}

func (c *Config) GetConnectionString() string {
	return fmt.Sprintf("redis://%s/%d", c.Address, c.DB)
}

func DefaultConfig() *Config {
	return &Config{
		BaseConnConfig: config.BaseConnConfig{Timeout: 5 * time.Second},
		Address:        "localhost:6379",
		PoolSize:       10,
		ConsumerGroup:  "integration-gateway-group",
		ConsumerName:   "integration-gateway-consumer",
	}
}
