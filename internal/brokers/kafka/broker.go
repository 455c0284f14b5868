// Package kafka implements the broker interface on top of confluent-kafka-go.
package kafka

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"integration-gateway/internal/brokers"
	"integration-gateway/internal/brokers/base"
	"integration-gateway/internal/common/errors"
	"integration-gateway/internal/common/logging"
)

const pollInterval = 100 * time.Millisecond

// producer is the subset of *kafka.Producer the broker uses.
type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	GetMetadata(topic *string, allTopics bool, timeoutMs int) (*kafka.Metadata, error)
	Close()
}

// consumer is the subset of *kafka.Consumer the broker uses.
type consumer interface {
	SubscribeTopics(topics []string, rebalanceCb kafka.RebalanceCb) error
	ReadMessage(timeout time.Duration) (*kafka.Message, error)
	Close() error
}

type Broker struct {
	*base.BaseBroker
	config      *Config
	producer    producer
	newConsumer func(*kafka.ConfigMap) (consumer, error)

	mu        sync.Mutex
	consumers []consumer
}

func NewBroker(config *Config) (*Broker, error) {
	baseBroker, err := base.NewBaseBroker("kafka", config)
	if err != nil {
		return nil, err
	}

	cm := configMap(config, config.ClientID)
	p, err := kafka.NewProducer(cm)
	if err != nil {
		return nil, errors.ConnectionError("failed to create Kafka producer", err)
	}

	return newBroker(baseBroker, config, p, func(cm *kafka.ConfigMap) (consumer, error) {
		return kafka.NewConsumer(cm)
	}), nil
}

func newBroker(baseBroker *base.BaseBroker, config *Config, p producer, newConsumer func(*kafka.ConfigMap) (consumer, error)) *Broker {
	return &Broker{
		BaseBroker:  baseBroker,
		config:      config,
		producer:    p,
		newConsumer: newConsumer,
	}
}

func configMap(config *Config, clientID string) *kafka.ConfigMap {
	cm := kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(config.Brokers, ","),
		"client.id":          clientID,
		"group.id":           config.GroupID,
		"session.timeout.ms": 6000,
		"auto.offset.reset":  "earliest",
	}

	if config.SecurityProtocol != "PLAINTEXT" {
		cm["security.protocol"] = config.SecurityProtocol
	}

	if strings.HasPrefix(config.SecurityProtocol, "SASL_") {
		cm["sasl.mechanism"] = config.SASLMechanism
		cm["sasl.username"] = config.SASLUsername
		cm["sasl.password"] = config.SASLPassword
	}

	return &cm
}

// Publish produces the message and waits for its delivery report.
func (b *Broker) Publish(ctx context.Context, message *brokers.Message) error {
	p := b.activeProducer()
	if p == nil {
		return errors.ConnectionError("kafka broker not connected", nil)
	}
	if message.Topic == "" {
		return errors.ValidationError("kafka message topic is required")
	}

	topic := message.Topic
	kafkaMsg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Value:     message.Body,
		Timestamp: message.Timestamp,
	}
	if message.Key != "" {
		kafkaMsg.Key = []byte(message.Key)
	}

	for key, value := range message.Headers {
		kafkaMsg.Headers = append(kafkaMsg.Headers, kafka.Header{Key: key, Value: []byte(value)})
	}
	if message.MessageID != "" {
		kafkaMsg.Headers = append(kafkaMsg.Headers, kafka.Header{Key: "message_id", Value: []byte(message.MessageID)})
	}

	deliveryChan := make(chan kafka.Event, 1)
	if err := p.Produce(kafkaMsg, deliveryChan); err != nil {
		return errors.ConnectionError("failed to produce message", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return errors.ConnectionError(fmt.Sprintf("unexpected delivery event: %v", e), nil)
		}
		if m.TopicPartition.Error != nil {
			return errors.ConnectionError("delivery failed", m.TopicPartition.Error)
		}

		b.GetLogger().Debug("Message delivered",
			logging.Field{Key: "topic", Value: topic},
			logging.Field{Key: "partition", Value: m.TopicPartition.Partition},
			logging.Field{Key: "offset", Value: m.TopicPartition.Offset.String()},
		)
		return nil
	}
}

// Subscribe consumes topic with the configured group until ctx is cancelled.
// Offsets are committed automatically whether or not the handler succeeds.
func (b *Broker) Subscribe(ctx context.Context, topic string, handler brokers.MessageHandler) error {
	c, err := b.newConsumer(configMap(b.config, b.config.ClientID+"-consumer"))
	if err != nil {
		return errors.ConnectionError("failed to create Kafka consumer", err)
	}

	if err := c.SubscribeTopics([]string{topic}, nil); err != nil {
		c.Close()
		return errors.ConnectionError(fmt.Sprintf("failed to subscribe to topic %s", topic), err)
	}

	b.mu.Lock()
	b.consumers = append(b.consumers, c)
	b.mu.Unlock()
	defer b.removeConsumer(c)

	wrapped := base.NewMessageHandler(handler, b.GetLogger(), "kafka", topic)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msg, err := c.ReadMessage(pollInterval)
		if err != nil {
			if kerr, ok := err.(kafka.Error); ok && kerr.Code() == kafka.ErrTimedOut {
				continue
			}
			b.GetLogger().Warn("Kafka consumer error", logging.Err(err))
			continue
		}

		headers := make(map[string]string, len(msg.Headers))
		for _, header := range msg.Headers {
			headers[header.Key] = string(header.Value)
		}

		id := headers["message_id"]
		if id == "" {
			id = fmt.Sprintf("%s-%d-%d", *msg.TopicPartition.Topic, msg.TopicPartition.Partition, msg.TopicPartition.Offset)
		}

		incoming := base.ConvertToIncomingMessage(b.GetBrokerInfo(), base.MessageData{
			ID:        id,
			Headers:   headers,
			Body:      msg.Value,
			Timestamp: msg.Timestamp,
			Metadata: map[string]interface{}{
				"topic":     *msg.TopicPartition.Topic,
				"partition": msg.TopicPartition.Partition,
				"offset":    int64(msg.TopicPartition.Offset),
			},
		})

		wrapped.Handle(ctx, incoming)
	}
}

func (b *Broker) removeConsumer(c consumer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, existing := range b.consumers {
		if existing == c {
			b.consumers = append(b.consumers[:i], b.consumers[i+1:]...)
			if err := c.Close(); err != nil {
				b.GetLogger().Warn("Failed to close Kafka consumer", logging.Err(err))
			}
			return
		}
	}
}

// activeProducer returns the producer, or nil once the broker is closed
func (b *Broker) activeProducer() producer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.producer
}

func (b *Broker) Health() error {
	p := b.activeProducer()
	if p == nil {
		return errors.ConnectionError("kafka producer not initialized", nil)
	}

	metadata, err := p.GetMetadata(nil, false, int(b.config.Timeout.Milliseconds()))
	if err != nil {
		return errors.ConnectionError("failed to get Kafka metadata", err)
	}
	if len(metadata.Brokers) == 0 {
		return errors.ConnectionError("no Kafka brokers available", nil)
	}

	return nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	consumers := b.consumers
	b.consumers = nil
	p := b.producer
	b.producer = nil
	b.mu.Unlock()

	var errs []string
	for _, c := range consumers {
		if err := c.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if p != nil {
		p.Close()
	}

	if len(errs) > 0 {
		return errors.ConnectionError(fmt.Sprintf("errors closing Kafka broker: %s", strings.Join(errs, "; ")), nil)
	}
	return nil
}
