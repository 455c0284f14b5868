package kafka

import (
	"fmt"
	"strings"
	"time"

	"integration-gateway/internal/common/config"
)

type Config struct {
	config.BaseConnConfig

	Brokers          []string
	ClientID         string
	GroupID          string
	SecurityProtocol string
	SASLMechanism    string
	SASLUsername     string
	SASLPassword     string
}

var validProtocols = []string{"PLAINTEXT", "SSL", "SASL_PLAINTEXT", "SASL_SSL"}

var validMechanisms = []string{"PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"}

func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required")
	}
	for _, broker := range c.Brokers {
		if broker == "" {
			return fmt.Errorf("empty kafka broker address")
		}
	}

	if c.ClientID == "" {
		c.ClientID = "integration-gateway"
	}
	if c.GroupID == "" {
		c.GroupID = "integration-gateway-group"
	}
	if c.SecurityProtocol == "" {
		c.SecurityProtocol = "PLAINTEXT"
	}
	c.SetConnectionDefaults(30 * time.Second)

	if !contains(validProtocols, c.SecurityProtocol) {
		return fmt.Errorf("invalid security protocol: %s", c.SecurityProtocol)
	}

	if strings.HasPrefix(c.SecurityProtocol, "SASL_") {
		if c.SASLMechanism == "" {
			c.SASLMechanism = "PLAIN"
		}
		if !contains(validMechanisms, c.SASLMechanism) {
			return fmt.Errorf("invalid SASL mechanism: %s", c.SASLMechanism)
		}
		if c.SASLUsername == "" || c.SASLPassword == "" {
			return fmt.Errorf("SASL username and password are required for SASL authentication")
		}
	}

	return nil
}

func (c *Config) GetType() string {
	return "kafka"
}

func (c *Config) GetConnectionString() string {
	return strings.Join(c.Brokers, ",")
}

func DefaultConfig() *Config {
	return &Config{
		BaseConnConfig:   config.BaseConnConfig{Timeout: 30 * time.Second},
		Brokers:          []string{"localhost:9092"},
		ClientID:         "integration-gateway",
		GroupID:          "integration-gateway-group",
		SecurityProtocol: "PLAINTEXT",
	}
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
