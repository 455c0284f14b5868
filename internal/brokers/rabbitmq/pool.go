package rabbitmq

import (
	"sync"
	"time"

	"github.com/streadway/amqp"

	"integration-gateway/internal/common/errors"
	"integration-gateway/internal/common/logging"
)

const defaultAcquireTimeout = 5 * time.Second

// connection is the part of *amqp.Connection the pool relies on
type connection interface {
	Channel() (*amqp.Channel, error)
	IsClosed() bool
	Close() error
}

func dialAMQP(url string) (connection, error) {
	return amqp.Dial(url)
}

// ConnectionPool keeps a fixed number of AMQP connections. Each publish or
// subscription borrows one connection, opens a channel on it and hands the
// connection back when done.
type ConnectionPool struct {
	url            string
	dial           func(url string) (connection, error)
	acquireTimeout time.Duration
	logger         logging.Logger

	mu     sync.Mutex
	closed bool
	idle   chan connection
}

// NewConnectionPool dials size connections up front, so an unreachable
// server fails at startup rather than on the first fire-and-forget request.
func NewConnectionPool(url string, size int, logger logging.Logger) (*ConnectionPool, error) {
	return newConnectionPool(url, size, dialAMQP, logger)
}

func newConnectionPool(url string, size int, dial func(string) (connection, error), logger logging.Logger) (*ConnectionPool, error) {
	if size < 1 {
		size = 1
	}
	p := &ConnectionPool{
		url:            url,
		dial:           dial,
		acquireTimeout: defaultAcquireTimeout,
		logger:         logger.WithFields(logging.String("component", "rabbitmq.pool")),
		idle:           make(chan connection, size),
	}

	for i := 0; i < size; i++ {
		conn, err := dial(url)
		if err != nil {
			p.Close()
			return nil, errors.ConnectionError("failed to connect to RabbitMQ", err)
		}
		p.idle <- conn
	}
	return p, nil
}

func (p *ConnectionPool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// acquire borrows an idle connection, redialing one the server has dropped
func (p *ConnectionPool) acquire() (connection, error) {
	if p.isClosed() {
		return nil, errors.ConnectionError("rabbitmq pool is closed", nil)
	}

	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case conn, ok := <-p.idle:
		if !ok {
			return nil, errors.ConnectionError("rabbitmq pool is closed", nil)
		}
		if !conn.IsClosed() {
			return conn, nil
		}
		p.logger.Warn("Redialing dropped RabbitMQ connection")
		fresh, err := p.dial(p.url)
		if err != nil {
			return nil, errors.ConnectionError("failed to reconnect to RabbitMQ", err)
		}
		return fresh, nil
	case <-timer.C:
		return nil, errors.ConnectionError("timed out waiting for a RabbitMQ connection", nil)
	}
}

// release returns conn to the pool. Dropped connections and connections
// released after Close are discarded.
func (p *ConnectionPool) release(conn connection) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || conn.IsClosed() {
		_ = conn.Close()
		return
	}
	select {
	case p.idle <- conn:
	default:
		_ = conn.Close()
	}
}

// Idle reports how many connections are waiting to be borrowed
func (p *ConnectionPool) Idle() int {
	return len(p.idle)
}

func (p *ConnectionPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	close(p.idle)
	for conn := range p.idle {
		_ = conn.Close()
	}
}

// NewClient borrows a connection and opens a channel on it
func (p *ConnectionPool) NewClient() (ClientInterface, error) {
	conn, err := p.acquire()
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		p.release(conn)
		return nil, errors.ConnectionError("failed to open RabbitMQ channel", err)
	}
	return &Client{pool: p, conn: conn, ch: ch}, nil
}

// Client is a channel on a borrowed connection
type Client struct {
	pool *ConnectionPool
	conn connection
	ch   *amqp.Channel
}

// Close closes the channel and gives the connection back to the pool
func (c *Client) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		c.pool.release(c.conn)
	}
}

func (c *Client) Publish(exchange, routingKey string, mandatory, immediate bool, msg amqp.Publishing) error {
	return c.ch.Publish(exchange, routingKey, mandatory, immediate, msg)
}

func (c *Client) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	return c.ch.QueueDeclare(name, durable, autoDelete, exclusive, noWait, args)
}

func (c *Client) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return c.ch.Consume(queue, consumer, autoAck, exclusive, noLocal, noWait, args)
}
