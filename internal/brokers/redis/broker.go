// Package redis provides a Redis Streams implementation of the broker
// interface. Topics are streams, consumers read through a consumer group and
// acknowledge with XACK once the handler succeeds.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"integration-gateway/internal/brokers"
	"integration-gateway/internal/brokers/base"
	"integration-gateway/internal/common/errors"
	"integration-gateway/internal/common/logging"
	redisclient "integration-gateway/internal/redis"
)

const readBlock = 100 * time.Millisecond

type Broker struct {
	*base.BaseBroker
	config *Config
	client *redis.Client
	// owned is false when the client is shared with the cache
	owned bool
}

// NewBroker creates a broker with its own Redis connection.
func NewBroker(config *Config) (*Broker, error) {
	baseBroker, err := base.NewBaseBroker("redis", config)
	if err != nil {
		return nil, err
	}

	client, err := redisclient.NewClient(&redisclient.Config{
		Address:  config.Address,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})
	if err != nil {
		return nil, err
	}

	return &Broker{
		BaseBroker: baseBroker,
		config:     config,
		client:     client.Raw(),
		owned:      true,
	}, nil
}

// NewBrokerWithClient creates a broker on an existing connection. Close
// leaves the client open.
func NewBrokerWithClient(config *Config, client *redis.Client) (*Broker, error) {
	baseBroker, err := base.NewBaseBroker("redis", config)
	if err != nil {
		return nil, err
	}

	return &Broker{
		BaseBroker: baseBroker,
		config:     config,
		client:     client,
	}, nil
}

// Publish appends the message to the topic stream.
func (b *Broker) Publish(ctx context.Context, message *brokers.Message) error {
	if b.client == nil {
		return errors.ConnectionError("Redis broker not connected", nil)
	}
	if message.Topic == "" {
		return errors.ValidationError("redis message topic is required")
	}

	timestamp := message.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	fields := map[string]interface{}{
		"body":       string(message.Body),
		"timestamp":  timestamp.UnixNano(),
		"message_id": message.MessageID,
	}
	if message.Key != "" {
		fields["key"] = message.Key
	}
	for key, value := range message.Headers {
		fields["header_"+key] = value
	}

	args := &redis.XAddArgs{
		Stream: message.Topic,
		ID:     "*",
		Values: fields,
	}
	if b.config.StreamMaxLen > 0 {
		args.MaxLen = b.config.StreamMaxLen
		args.Approx = true
	}

	id, err := b.client.XAdd(ctx, args).Result()
	if err != nil {
		return errors.ConnectionError("failed to publish message to Redis stream", err)
	}

	b.GetLogger().Debug("Message published to Redis stream",
		logging.Field{Key: "stream", Value: message.Topic},
		logging.Field{Key: "id", Value: id},
	)
	return nil
}

// Subscribe reads the stream through the configured consumer group until ctx
// is cancelled. Messages whose handler fails stay pending.
func (b *Broker) Subscribe(ctx context.Context, topic string, handler brokers.MessageHandler) error {
	if b.client == nil {
		return errors.ConnectionError("Redis broker not connected", nil)
	}

	group := b.config.ConsumerGroup
	err := b.client.XGroupCreateMkStream(ctx, topic, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return errors.ConnectionError("failed to create consumer group", err)
	}

	messageHandler := base.NewMessageHandler(handler, b.GetLogger(), "redis", topic)
	logger := b.GetLogger().WithFields(
		logging.Field{Key: "stream", Value: topic},
		logging.Field{Key: "consumer_group", Value: group},
	)

	for {
		if ctx.Err() != nil {
			logger.Info("Redis subscription cancelled")
			return nil
		}

		streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: b.config.ConsumerName,
			Streams:  []string{topic, ">"},
			Count:    1,
			Block:    readBlock,
		}).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			logger.Error("Redis consumer error", err)
			time.Sleep(readBlock)
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				incoming := b.convert(topic, message)
				if messageHandler.Handle(ctx, incoming, logging.Field{Key: "stream_id", Value: message.ID}) {
					if err := b.client.XAck(ctx, topic, group, message.ID).Err(); err != nil {
						logger.Error("Failed to acknowledge Redis message", err, logging.Field{Key: "stream_id", Value: message.ID})
					}
				}
			}
		}
	}
}

func (b *Broker) convert(topic string, message redis.XMessage) *brokers.IncomingMessage {
	headers := make(map[string]string)
	var body []byte
	var messageID string
	var timestamp time.Time

	for field, value := range message.Values {
		str := fmt.Sprintf("%v", value)
		switch field {
		case "body":
			body = []byte(str)
		case "message_id":
			messageID = str
		case "timestamp":
			if ts, err := strconv.ParseInt(str, 10, 64); err == nil {
				timestamp = time.Unix(0, ts)
			}
		default:
			if strings.HasPrefix(field, "header_") {
				headers[strings.TrimPrefix(field, "header_")] = str
			}
		}
	}

	if messageID == "" {
		messageID = message.ID
	}

	return base.ConvertToIncomingMessage(b.GetBrokerInfo(), base.MessageData{
		ID:        messageID,
		Headers:   headers,
		Body:      body,
		Timestamp: timestamp,
		Metadata: map[string]interface{}{
			"stream":         topic,
			"stream_id":      message.ID,
			"consumer_group": b.config.ConsumerGroup,
			"consumer_name":  b.config.ConsumerName,
		},
	})
}

func (b *Broker) Health() error {
	if b.client == nil {
		return errors.ConnectionError("Redis client not initialized", nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.config.Timeout)
	defer cancel()

	if err := b.client.Ping(ctx).Err(); err != nil {
		return errors.ConnectionError("Redis ping failed", err)
	}
	return nil
}

func (b *Broker) Close() error {
	client := b.client
	b.client = nil

	if client != nil && b.owned {
		return client.Close()
	}
	return nil
}
