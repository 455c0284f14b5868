package base

import (
	"context"
	"fmt"
	"time"

	"integration-gateway/internal/brokers"
	"integration-gateway/internal/common/logging"
)

// MessageData is the broker-neutral view of a delivered message.
type MessageData struct {
	ID        string
	Headers   map[string]string
	Body      []byte
	Timestamp time.Time
	Metadata  map[string]interface{}
}

func ConvertToIncomingMessage(brokerInfo brokers.BrokerInfo, data MessageData) *brokers.IncomingMessage {
	if data.Headers == nil {
		data.Headers = make(map[string]string)
	}
	if data.Timestamp.IsZero() {
		data.Timestamp = time.Now()
	}
	return &brokers.IncomingMessage{
		ID:        data.ID,
		Headers:   data.Headers,
		Body:      data.Body,
		Timestamp: data.Timestamp,
		Source:    brokerInfo,
		Metadata:  data.Metadata,
	}
}

// MessageHandler wraps a brokers.MessageHandler with consistent error logging.
type MessageHandler struct {
	handler    brokers.MessageHandler
	logger     logging.Logger
	brokerType string
	topic      string
}

func NewMessageHandler(handler brokers.MessageHandler, logger logging.Logger, brokerType, topic string) *MessageHandler {
	return &MessageHandler{
		handler:    handler,
		logger:     logger,
		brokerType: brokerType,
		topic:      topic,
	}
}

// Handle runs the handler and reports whether the message should be acknowledged.
func (mh *MessageHandler) Handle(ctx context.Context, msg *brokers.IncomingMessage, extraFields ...logging.Field) bool {
	if err := mh.handler(ctx, msg); err != nil {
		fields := []logging.Field{
			{Key: "broker_type", Value: mh.brokerType},
			{Key: "topic", Value: mh.topic},
			{Key: "message_id", Value: msg.ID},
		}
		fields = append(fields, extraFields...)

		mh.logger.Error(fmt.Sprintf("Error handling %s message", mh.brokerType), err, fields...)
		return false
	}
	return true
}

// ToStringMap flattens broker specific header representations.
func ToStringMap(headers interface{}) map[string]string {
	result := make(map[string]string)

	switch h := headers.(type) {
	case map[string]string:
		for k, v := range h {
			result[k] = v
		}
	case map[string]interface{}:
		for k, v := range h {
			result[k] = fmt.Sprintf("%v", v)
		}
	}

	return result
}
