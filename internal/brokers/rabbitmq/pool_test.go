package rabbitmq

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "integration-gateway/internal/common/errors"
	"integration-gateway/internal/common/logging"
)

type fakeConn struct {
	mu         sync.Mutex
	dropped    bool
	closed     bool
	channelErr error
}

func (c *fakeConn) Channel() (*amqp.Channel, error) {
	return nil, c.channelErr
}

func (c *fakeConn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped || c.closed
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// fakeDialer hands out fakeConns and records them
type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
}

func (d *fakeDialer) dial(string) (connection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	conn := &fakeConn{}
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) dialed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func newTestPool(t *testing.T, size int, d *fakeDialer) *ConnectionPool {
	t.Helper()
	pool, err := newConnectionPool("amqp://rabbit", size, d.dial, logging.Component("test"))
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestConnectionPool_DialsEagerly(t *testing.T) {
	d := &fakeDialer{}
	pool := newTestPool(t, 3, d)

	assert.Equal(t, 3, d.dialed())
	assert.Equal(t, 3, pool.Idle())
}

func TestConnectionPool_DialFailure(t *testing.T) {
	d := &fakeDialer{err: errors.New("connection refused")}

	_, err := newConnectionPool("amqp://rabbit", 2, d.dial, logging.Component("test"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConnection))
}

func TestConnectionPool_ClientReturnsConnection(t *testing.T) {
	pool := newTestPool(t, 1, &fakeDialer{})

	client, err := pool.NewClient()
	require.NoError(t, err)
	assert.Equal(t, 0, pool.Idle())

	client.Close()
	assert.Equal(t, 1, pool.Idle())
}

func TestConnectionPool_ChannelFailureReleasesConnection(t *testing.T) {
	d := &fakeDialer{}
	pool := newTestPool(t, 1, d)
	d.conns[0].channelErr = errors.New("channel limit reached")

	_, err := pool.NewClient()
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConnection))
	assert.Equal(t, 1, pool.Idle())
}

func TestConnectionPool_RedialsDroppedConnection(t *testing.T) {
	d := &fakeDialer{}
	pool := newTestPool(t, 1, d)
	d.conns[0].dropped = true

	client, err := pool.NewClient()
	require.NoError(t, err)
	assert.Equal(t, 2, d.dialed())

	client.Close()
	assert.Equal(t, 1, pool.Idle())
}

func TestConnectionPool_AcquireTimeout(t *testing.T) {
	pool := newTestPool(t, 1, &fakeDialer{})
	pool.acquireTimeout = 20 * time.Millisecond

	held, err := pool.NewClient()
	require.NoError(t, err)
	defer held.Close()

	_, err = pool.NewClient()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestConnectionPool_Close(t *testing.T) {
	d := &fakeDialer{}
	pool := newTestPool(t, 2, d)

	client, err := pool.NewClient()
	require.NoError(t, err)

	pool.Close()
	pool.Close()
	for _, conn := range d.conns[1:] {
		assert.True(t, conn.closed)
	}

	client.Close()
	assert.True(t, d.conns[0].closed, "connections released after Close are discarded")

	_, err = pool.NewClient()
	assert.Error(t, err)
}
