package base

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"integration-gateway/internal/brokers"
	apperrors "integration-gateway/internal/common/errors"
	"integration-gateway/internal/common/logging"
)

type testConfig struct {
	valid bool
}

func (c *testConfig) Validate() error {
	if !c.valid {
		return errors.New("missing url")
	}
	return nil
}
func (c *testConfig) GetConnectionString() string { return "test://host" }
func (c *testConfig) GetType() string             { return "test" }

func TestNewBaseBroker(t *testing.T) {
	b, err := NewBaseBroker("test", &testConfig{valid: true})
	require.NoError(t, err)

	assert.Equal(t, "test", b.Name())
	assert.NotNil(t, b.GetLogger())
	assert.Equal(t, brokers.BrokerInfo{Name: "test", Type: "test", URL: "test://host"}, b.GetBrokerInfo())
}

func TestNewBaseBroker_InvalidConfig(t *testing.T) {
	_, err := NewBaseBroker("test", &testConfig{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	assert.Contains(t, err.Error(), "missing url")

	_, err = NewBaseBroker("test", nil)
	require.Error(t, err)
}

func TestConvertToIncomingMessage(t *testing.T) {
	info := brokers.BrokerInfo{Name: "test"}
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	msg := ConvertToIncomingMessage(info, MessageData{ID: "1", Body: []byte("x"), Timestamp: ts})

	assert.Equal(t, "1", msg.ID)
	assert.Equal(t, []byte("x"), msg.Body)
	assert.Equal(t, ts, msg.Timestamp)
	assert.Equal(t, info, msg.Source)
	assert.NotNil(t, msg.Headers)

	msg = ConvertToIncomingMessage(info, MessageData{ID: "2"})
	assert.False(t, msg.Timestamp.IsZero())
}

func TestMessageHandler_Handle(t *testing.T) {
	logger := logging.GetGlobalLogger()
	msg := &brokers.IncomingMessage{ID: "1"}

	ok := NewMessageHandler(func(ctx context.Context, m *brokers.IncomingMessage) error {
		return nil
	}, logger, "test", "topic").Handle(context.Background(), msg)
	assert.True(t, ok)

	ok = NewMessageHandler(func(ctx context.Context, m *brokers.IncomingMessage) error {
		return errors.New("boom")
	}, logger, "test", "topic").Handle(context.Background(), msg)
	assert.False(t, ok)
}

func TestToStringMap(t *testing.T) {
	assert.Equal(t, map[string]string{"a": "1"}, ToStringMap(map[string]string{"a": "1"}))
	assert.Equal(t, map[string]string{"a": "1", "b": "true"}, ToStringMap(map[string]interface{}{"a": 1, "b": true}))
	assert.Empty(t, ToStringMap(nil))
}
