package rabbitmq

import (
	"github.com/streadway/amqp"
)

// ConnectionPoolInterface abstracts the connection pool for testing
type ConnectionPoolInterface interface {
	NewClient() (ClientInterface, error)
	Close()
}

// ClientInterface abstracts a pooled connection and its channel for testing
type ClientInterface interface {
	Close()
	Publish(exchange, routingKey string, mandatory, immediate bool, msg amqp.Publishing) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

var _ ConnectionPoolInterface = (*ConnectionPool)(nil)
var _ ClientInterface = (*Client)(nil)
