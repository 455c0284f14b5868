package aws

import (
	"fmt"
	"time"

	"integration-gateway/internal/common/config"
)

type Config struct {
	config.BaseConnConfig

	Region string
	// AccessKeyID and SecretAccessKey are optional; when empty the default
	// AWS credential chain is used
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	QueueURL        string // SQS
	TopicArn        string // SNS
	// Endpoint overrides the service endpoint, e.g. for LocalStack
	Endpoint          string
	VisibilityTimeout int32 // seconds
	WaitTimeSeconds   int32 // SQS long polling
	MaxMessages       int32
}

func (c *Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("AWS region is required")
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("AWS access key id and secret access key must be set together")
	}
	if c.QueueURL == "" && c.TopicArn == "" {
		return fmt.Errorf("either QueueURL (for SQS) or TopicArn (for SNS) is required")
	}

	c.SetConnectionDefaults(30 * time.Second)

	if c.VisibilityTimeout <= 0 {
		c.VisibilityTimeout = 30
	}
	if c.WaitTimeSeconds <= 0 {
		c.WaitTimeSeconds = 1
	}
	if c.WaitTimeSeconds > 20 {
		return fmt.Errorf("wait time must be at most 20 seconds")
	}
	if c.MaxMessages <= 0 {
		c.MaxMessages = 1
	}
	if c.MaxMessages > 10 {
		return fmt.Errorf("max messages must be at most 10")
	}

	return nil
}

func (c *Config) GetType() string {
	return "aws"
}

func (c *Config) GetConnectionString() string {
	if c.QueueURL != "" {
		return fmt.Sprintf("sqs://%s/%s", c.Region, c.QueueURL)
	}
	return fmt.Sprintf("sns://%s/%s", c.Region, c.TopicArn)
}
