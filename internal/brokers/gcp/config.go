package gcp

import (
	"fmt"
	"time"

	"integration-gateway/internal/common/config"
)

type Config struct {
	config.BaseConnConfig

	ProjectID       string
	CredentialsJSON string // optional, Application Default Credentials otherwise
	CredentialsPath string // optional service account key file
	TopicID         string
	SubscriptionID  string
	// CreateSubscription creates "<TopicID>-subscription" (or SubscriptionID)
	// when it does not exist
	CreateSubscription     bool
	AckDeadline            int // seconds
	MaxOutstandingMessages int
}

func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("GCP project id is required")
	}
	if c.TopicID == "" {
		return fmt.Errorf("GCP topic id is required")
	}

	c.SetConnectionDefaults(30 * time.Second)

	if c.AckDeadline <= 0 {
		c.AckDeadline = 60
	}
	if c.AckDeadline < 10 || c.AckDeadline > 600 {
		return fmt.Errorf("ack_deadline must be between 10 and 600 seconds")
	}
	if c.MaxOutstandingMessages <= 0 {
		c.MaxOutstandingMessages = 100
	}

	return nil
}

func (c *Config) GetType() string {
	return "gcp"
}

func (c *Config) GetConnectionString() string {
	return fmt.Sprintf("pubsub://projects/%s/topics/%s", c.ProjectID, c.TopicID)
}

func (c *Config) subscriptionID() string {
	if c.SubscriptionID != "" {
		return c.SubscriptionID
	}
	return c.TopicID + "-subscription"
}
