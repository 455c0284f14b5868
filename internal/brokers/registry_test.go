package brokers

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"integration-gateway/internal/common/errors"
)

type fakeConfig struct{}

func (fakeConfig) Validate() error              { return nil }
func (fakeConfig) GetConnectionString() string { return "fake://" }
func (fakeConfig) GetType() string             { return "fake" }

type invalidConfig struct{ fakeConfig }

func (invalidConfig) Validate() error { return stderrors.New("address is required") }

type fakeBroker struct{}

func (fakeBroker) Name() string                                            { return "fake" }
func (fakeBroker) Publish(context.Context, *Message) error                 { return nil }
func (fakeBroker) Subscribe(context.Context, string, MessageHandler) error { return nil }
func (fakeBroker) Health() error                                           { return nil }
func (fakeBroker) Close() error                                            { return nil }

type fakeFactory struct{ typ string }

func (f fakeFactory) Create(BrokerConfig) (Broker, error) { return fakeBroker{}, nil }
func (f fakeFactory) GetType() string                     { return f.typ }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.IsRegistered("fake"))

	r.Register("fake", fakeFactory{typ: "fake"})
	r.Register("another", fakeFactory{typ: "another"})

	assert.True(t, r.IsRegistered("fake"))
	assert.True(t, r.IsRegistered("FAKE"))
	assert.Equal(t, []string{"another", "fake"}, r.Types())

	broker, err := r.Create("Fake", fakeConfig{})
	require.NoError(t, err)
	assert.Equal(t, "fake", broker.Name())
}

func TestRegistry_RegisterTwicePanics(t *testing.T) {
	r := NewRegistry()
	r.Register("fake", fakeFactory{typ: "fake"})

	assert.Panics(t, func() { r.Register("FAKE", fakeFactory{typ: "fake"}) })
	assert.Panics(t, func() { r.Register("nil", nil) })
}

func TestRegistry_InvalidConfig(t *testing.T) {
	r := NewRegistry()
	r.Register("fake", fakeFactory{typ: "fake"})

	_, err := r.Create("fake", invalidConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
	assert.Contains(t, err.Error(), "address is required")

	_, err = r.Create("fake", nil)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
}

func TestRegistry_UnknownType(t *testing.T) {
	r := NewRegistry()

	_, err := r.Create("nats", fakeConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
	assert.Contains(t, err.Error(), "nats")
	assert.Contains(t, err.Error(), "available: ")
}
