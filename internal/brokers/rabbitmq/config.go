package rabbitmq

import (
	"fmt"
	"net/url"

	"integration-gateway/internal/common/validation"
)

type Config struct {
	URL      string `json:"url" validate:"required,amqp_url"`
	PoolSize int    `json:"pool_size" validate:"min=1,max=100"`
}

func (c *Config) Validate() error {
	if c.PoolSize <= 0 {
		c.PoolSize = 5
	}

	return validation.ValidateStruct(c)
}

// GetConnectionString returns the broker host with credentials removed.
func (c *Config) GetConnectionString() string {
	if parsedURL, err := url.Parse(c.URL); err == nil {
		return fmt.Sprintf("rabbitmq://%s", parsedURL.Host)
	}
	return "rabbitmq://***"
}

func (c *Config) GetType() string {
	return "rabbitmq"
}
