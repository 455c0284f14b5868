// Package rabbitmq provides a RabbitMQ implementation of the broker interface.
// Topics map to durable queues on the default exchange and connections are
// pooled.
package rabbitmq

import (
	"context"
	"time"

	"github.com/streadway/amqp"

	"integration-gateway/internal/brokers"
	"integration-gateway/internal/brokers/base"
	"integration-gateway/internal/common/errors"
	"integration-gateway/internal/common/logging"
)

type Broker struct {
	*base.BaseBroker
	pool ConnectionPoolInterface
}

func NewBroker(config *Config) (*Broker, error) {
	baseBroker, err := base.NewBaseBroker("rabbitmq", config)
	if err != nil {
		return nil, err
	}

	pool, err := NewConnectionPool(config.URL, config.PoolSize, baseBroker.GetLogger())
	if err != nil {
		return nil, err
	}

	return &Broker{
		BaseBroker: baseBroker,
		pool:       pool,
	}, nil
}

// NewBrokerWithPool creates a broker with an injected connection pool.
func NewBrokerWithPool(config *Config, pool ConnectionPoolInterface) (*Broker, error) {
	baseBroker, err := base.NewBaseBroker("rabbitmq", config)
	if err != nil {
		return nil, err
	}

	return &Broker{
		BaseBroker: baseBroker,
		pool:       pool,
	}, nil
}

func (b *Broker) client() (ClientInterface, error) {
	if b.pool == nil {
		return nil, errors.ConnectionError("RabbitMQ broker not connected", nil)
	}

	client, err := b.pool.NewClient()
	if err != nil {
		return nil, errors.ConnectionError("failed to get RabbitMQ client", err)
	}
	return client, nil
}

// Publish declares the topic queue and publishes a persistent message to it.
func (b *Broker) Publish(ctx context.Context, message *brokers.Message) error {
	if message.Topic == "" {
		return errors.ValidationError("rabbitmq message topic is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	client, err := b.client()
	if err != nil {
		return err
	}
	defer client.Close()

	if _, err := client.QueueDeclare(message.Topic, true, false, false, false, nil); err != nil {
		return errors.ConnectionError("failed to declare queue "+message.Topic, err)
	}

	headers := amqp.Table{}
	for k, v := range message.Headers {
		headers[k] = v
	}

	timestamp := message.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	err = client.Publish("", message.Topic, false, false, amqp.Publishing{
		Headers:       headers,
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		MessageId:     message.MessageID,
		CorrelationId: message.Key,
		Body:          message.Body,
		Timestamp:     timestamp,
	})
	if err != nil {
		return errors.ConnectionError("failed to publish to queue "+message.Topic, err)
	}
	return nil
}

// Subscribe consumes the topic queue until ctx is cancelled or the delivery
// channel closes. Messages are acked on success and requeued on handler errors.
func (b *Broker) Subscribe(ctx context.Context, topic string, handler brokers.MessageHandler) error {
	client, err := b.client()
	if err != nil {
		return err
	}
	defer client.Close()

	if _, err = client.QueueDeclare(topic, true, false, false, false, nil); err != nil {
		return errors.ConnectionError("failed to declare queue "+topic, err)
	}

	msgs, err := client.Consume(topic, "", false, false, false, false, nil)
	if err != nil {
		return errors.ConnectionError("failed to start consuming from queue "+topic, err)
	}

	messageHandler := base.NewMessageHandler(handler, b.GetLogger(), "rabbitmq", topic)

	for {
		select {
		case <-ctx.Done():
			b.GetLogger().Info("RabbitMQ subscription cancelled", logging.Field{Key: "topic", Value: topic})
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.ConnectionError("RabbitMQ delivery channel closed for queue "+topic, nil)
			}

			incoming := base.ConvertToIncomingMessage(b.GetBrokerInfo(), base.MessageData{
				ID:        msg.MessageId,
				Headers:   base.ToStringMap(map[string]interface{}(msg.Headers)),
				Body:      msg.Body,
				Timestamp: msg.Timestamp,
				Metadata: map[string]interface{}{
					"delivery_tag": msg.DeliveryTag,
					"routing_key":  msg.RoutingKey,
				},
			})

			if messageHandler.Handle(ctx, incoming, logging.Field{Key: "routing_key", Value: msg.RoutingKey}) {
				msg.Ack(false)
			} else {
				msg.Nack(false, true)
			}
		}
	}
}

// Health verifies a channel can be opened and a throwaway queue declared.
func (b *Broker) Health() error {
	client, err := b.client()
	if err != nil {
		return err
	}
	defer client.Close()

	_, err = client.QueueDeclare("health-check-temp", false, true, false, false, nil)
	return err
}

func (b *Broker) Close() error {
	if b.pool != nil {
		b.pool.Close()
		b.pool = nil
	}
	return nil
}
