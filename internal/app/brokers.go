package app

import (
	"time"

	"integration-gateway/internal/brokers"
	"integration-gateway/internal/brokers/aws"
	"integration-gateway/internal/brokers/gcp"
	"integration-gateway/internal/brokers/kafka"
	"integration-gateway/internal/brokers/rabbitmq"
	redisbroker "integration-gateway/internal/brokers/redis"
	commonconfig "integration-gateway/internal/common/config"
	"integration-gateway/internal/common/errors"
	"integration-gateway/internal/config"
)

// RegisterBrokerFactories registers every supported broker type
func RegisterBrokerFactories(registry *brokers.Registry) {
	registry.Register("rabbitmq", rabbitmq.GetFactory())
	registry.Register("kafka", kafka.GetFactory())
	registry.Register("redis", redisbroker.GetFactory())
	registry.Register("aws", aws.GetFactory())
	registry.Register("gcp", gcp.GetFactory())
}

// BrokerConfig builds the configuration of the broker selected by BROKER_TYPE
func BrokerConfig(cfg *config.Config) (brokers.BrokerConfig, error) {
	base := commonconfig.BaseConnConfig{Timeout: 30 * time.Second}

	switch cfg.BrokerType {
	case "kafka":
		return &kafka.Config{
			BaseConnConfig: base,
			Brokers:        cfg.KafkaBrokers,
			ClientID:       cfg.KafkaClientID,
			GroupID:        cfg.KafkaGroupID,
		}, nil

	case "rabbitmq":
		return &rabbitmq.Config{
			URL:      cfg.RabbitMQURL,
			PoolSize: cfg.RabbitMQPoolSize,
		}, nil

	case "redis":
		return &redisbroker.Config{
			BaseConnConfig: base,
			Address:        cfg.RedisAddress,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			PoolSize:       cfg.RedisPoolSize,
		}, nil

	case "aws":
		return &aws.Config{
			BaseConnConfig:  base,
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			QueueURL:        cfg.AWSQueueURL,
			TopicArn:        cfg.AWSTopicArn,
		}, nil

	case "gcp":
		return &gcp.Config{
			BaseConnConfig:  base,
			ProjectID:       cfg.GCPProjectID,
			TopicID:         cfg.GCPTopicID,
			SubscriptionID:  cfg.GCPSubscriptionID,
			CredentialsPath: cfg.GCPCredentialsPath,
			// the worker needs a subscription to exist
			CreateSubscription: cfg.WorkerEnabled,
		}, nil

	default:
		return nil, errors.ConfigError("unsupported broker type: " + cfg.BrokerType)
	}
}
