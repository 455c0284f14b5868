// Package brokers defines the message broker abstraction used by the
// fire-and-forget queue and the worker, together with a registry of broker
// factories keyed by type.
package brokers

import (
	"context"
	"time"
)

type Broker interface {
	Name() string
	Publish(ctx context.Context, message *Message) error
	// Subscribe blocks until ctx is cancelled or the subscription fails.
	Subscribe(ctx context.Context, topic string, handler MessageHandler) error
	Health() error
	Close() error
}

type BrokerConfig interface {
	Validate() error
	GetConnectionString() string
	GetType() string
}

type Message struct {
	Topic     string
	Key       string
	Headers   map[string]string
	Body      []byte
	Timestamp time.Time
	MessageID string
}

// MessageHandler processes a delivered message. A nil error acknowledges it.
type MessageHandler func(ctx context.Context, message *IncomingMessage) error

type IncomingMessage struct {
	ID        string
	Headers   map[string]string
	Body      []byte
	Timestamp time.Time
	Source    BrokerInfo
	Metadata  map[string]interface{}
}

type BrokerInfo struct {
	Name string
	Type string
	URL  string
}

type BrokerFactory interface {
	Create(config BrokerConfig) (Broker, error)
	GetType() string
}
