// Package gcp provides a Google Cloud Pub/Sub implementation of the broker
// interface. Messages are always published to the configured topic; the
// logical topic name travels as an attribute.
package gcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"integration-gateway/internal/brokers"
	"integration-gateway/internal/brokers/base"
	"integration-gateway/internal/common/errors"
	"integration-gateway/internal/common/logging"
)

const (
	attrMessageID = "MessageID"
	attrTimestamp = "Timestamp"
	attrTopic     = "Topic"
	attrKey       = "Key"
	headerPrefix  = "Header_"
)

type Broker struct {
	*base.BaseBroker
	config *Config
	client *pubsub.Client
	topic  *pubsub.Topic

	subscriptionMutex sync.Mutex
	subscription      *pubsub.Subscription
}

func NewBroker(config *Config) (*Broker, error) {
	var opts []option.ClientOption
	if config.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(config.CredentialsJSON)))
	} else if config.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsPath))
	}

	return NewBrokerWithOptions(config, opts...)
}

// NewBrokerWithOptions creates the Pub/Sub client with explicit client
// options, e.g. an emulator endpoint.
func NewBrokerWithOptions(config *Config, opts ...option.ClientOption) (*Broker, error) {
	baseBroker, err := base.NewBaseBroker("gcp", config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	client, err := pubsub.NewClient(context.Background(), config.ProjectID, opts...)
	if err != nil {
		return nil, errors.ConnectionError("failed to create Pub/Sub client", err)
	}

	topic := client.Topic(config.TopicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, errors.ConnectionError("failed to check topic existence", err)
	}
	if !exists {
		client.Close()
		return nil, errors.ConfigError(fmt.Sprintf("topic %s does not exist", config.TopicID))
	}

	topic.PublishSettings.NumGoroutines = 2
	topic.PublishSettings.CountThreshold = 10
	topic.PublishSettings.DelayThreshold = 10 * time.Millisecond

	return &Broker{
		BaseBroker: baseBroker,
		config:     config,
		client:     client,
		topic:      topic,
	}, nil
}

// ensureSubscription resolves the configured subscription, creating it when allowed.
func (b *Broker) ensureSubscription(ctx context.Context) (*pubsub.Subscription, error) {
	b.subscriptionMutex.Lock()
	defer b.subscriptionMutex.Unlock()

	if b.subscription != nil {
		return b.subscription, nil
	}

	id := b.config.subscriptionID()
	sub := b.client.Subscription(id)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, errors.ConnectionError("failed to check subscription existence", err)
	}

	if !exists {
		if !b.config.CreateSubscription {
			return nil, errors.ConfigError(fmt.Sprintf("subscription %s does not exist and auto-create is disabled", id))
		}

		sub, err = b.client.CreateSubscription(ctx, id, pubsub.SubscriptionConfig{
			Topic:       b.topic,
			AckDeadline: time.Duration(b.config.AckDeadline) * time.Second,
		})
		if err != nil {
			return nil, errors.ConnectionError("failed to create subscription", err)
		}

		b.GetLogger().Info("Created Pub/Sub subscription",
			logging.Field{Key: "subscription_id", Value: id},
			logging.Field{Key: "topic_id", Value: b.config.TopicID},
		)
	}

	sub.ReceiveSettings.MaxOutstandingMessages = b.config.MaxOutstandingMessages
	sub.ReceiveSettings.NumGoroutines = 1

	b.subscription = sub
	return sub, nil
}

// Publish sends the message to the configured topic and waits for the server id.
func (b *Broker) Publish(ctx context.Context, message *brokers.Message) error {
	if b.client == nil || b.topic == nil {
		return errors.ConnectionError("not connected to Pub/Sub", nil)
	}

	timestamp := message.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	attributes := map[string]string{
		attrTimestamp: strconv.FormatInt(timestamp.UnixNano(), 10),
	}
	if message.MessageID != "" {
		attributes[attrMessageID] = message.MessageID
	}
	if message.Topic != "" {
		attributes[attrTopic] = message.Topic
	}
	if message.Key != "" {
		attributes[attrKey] = message.Key
	}
	for key, value := range message.Headers {
		attributes[headerPrefix+key] = value
	}

	result := b.topic.Publish(ctx, &pubsub.Message{
		Data:       message.Body,
		Attributes: attributes,
	})

	serverID, err := result.Get(ctx)
	if err != nil {
		return errors.ConnectionError("failed to publish message to Pub/Sub", err)
	}

	b.GetLogger().Debug("Message published to Pub/Sub",
		logging.Field{Key: "pubsub_message_id", Value: serverID},
		logging.Field{Key: "topic_id", Value: b.topic.ID()},
	)
	return nil
}

// Subscribe receives from the configured subscription until ctx is
// cancelled. Failed messages are nacked for redelivery.
func (b *Broker) Subscribe(ctx context.Context, topic string, handler brokers.MessageHandler) error {
	if b.client == nil {
		return errors.ConnectionError("not connected to Pub/Sub", nil)
	}

	sub, err := b.ensureSubscription(ctx)
	if err != nil {
		return err
	}

	messageHandler := base.NewMessageHandler(handler, b.GetLogger(), "gcp", topic)

	b.GetLogger().Info("Started Pub/Sub subscription",
		logging.Field{Key: "subscription", Value: sub.ID()},
		logging.Field{Key: "topic", Value: topic},
	)

	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		incoming := b.convert(sub.ID(), msg)
		if messageHandler.Handle(ctx, incoming, logging.Field{Key: "pubsub_message_id", Value: msg.ID}) {
			msg.Ack()
		} else {
			msg.Nack()
		}
	})
	if err != nil && ctx.Err() == nil {
		return errors.ConnectionError("Pub/Sub subscription failed", err)
	}
	return nil
}

func (b *Broker) convert(subscriptionID string, msg *pubsub.Message) *brokers.IncomingMessage {
	headers := make(map[string]string)
	id := msg.ID
	timestamp := msg.PublishTime

	for key, value := range msg.Attributes {
		switch {
		case key == attrMessageID:
			id = value
		case key == attrTimestamp:
			if ts, err := strconv.ParseInt(value, 10, 64); err == nil {
				timestamp = time.Unix(0, ts)
			}
		case strings.HasPrefix(key, headerPrefix):
			headers[strings.TrimPrefix(key, headerPrefix)] = value
		}
	}

	return base.ConvertToIncomingMessage(b.GetBrokerInfo(), base.MessageData{
		ID:        id,
		Headers:   headers,
		Body:      msg.Data,
		Timestamp: timestamp,
		Metadata: map[string]interface{}{
			"pubsub_message_id": msg.ID,
			"publish_time":      msg.PublishTime,
			"topic":             msg.Attributes[attrTopic],
			"subscription":      subscriptionID,
		},
	})
}

func (b *Broker) Health() error {
	if b.client == nil || b.topic == nil {
		return errors.ConnectionError("not connected to Pub/Sub", nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.config.Timeout)
	defer cancel()

	if _, err := b.topic.Config(ctx); err != nil {
		return errors.ConnectionError("failed to get topic config", err)
	}
	return nil
}

// Close flushes pending publishes and closes the client.
func (b *Broker) Close() error {
	if b.topic != nil {
		b.topic.Stop()
		b.topic = nil
	}

	if b.client != nil {
		client := b.client
		b.client = nil
		return client.Close()
	}
	return nil
}
