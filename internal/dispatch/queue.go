// Package dispatch hands fire-and-forget requests to the configured message
// broker.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"integration-gateway/internal/brokers"
	"integration-gateway/internal/common/errors"
	"integration-gateway/internal/common/logging"
	"integration-gateway/internal/models"
)

// Queue accepts requests for asynchronous execution.
type Queue interface {
	// Enqueue assigns a fresh id to req, publishes it on topic and returns the id.
	Enqueue(ctx context.Context, topic string, req *models.IntegrationRequest) (string, error)
}

// BrokerQueue publishes requests through a brokers.Broker. One publish
// attempt is made per call.
type BrokerQueue struct {
	broker brokers.Broker
	logger logging.Logger
	newID  func() (uuid.UUID, error)
}

func NewBrokerQueue(broker brokers.Broker) *BrokerQueue {
	return &BrokerQueue{
		broker: broker,
		logger: logging.Component("dispatch").WithFields(logging.String("broker", broker.Name())),
		newID:  uuid.NewUUID,
	}
}

func (q *BrokerQueue) Enqueue(ctx context.Context, topic string, req *models.IntegrationRequest) (string, error) {
	id, err := q.newID()
	if err != nil {
		return "", errors.DispatchError("failed to generate request id", err)
	}
	req.ID = id.String()

	body, err := json.Marshal(req)
	if err != nil {
		return "", errors.DispatchError("failed to encode request", err)
	}

	msg := &brokers.Message{
		Topic:     topic,
		Key:       req.ID,
		MessageID: req.ID,
		Body:      body,
		Timestamp: time.Now(),
		Headers: map[string]string{
			"content-type":   "application/json",
			"operation-type": string(req.OperationType),
		},
	}

	if err := q.broker.Publish(ctx, msg); err != nil {
		q.logger.Error("Failed to enqueue request", err,
			logging.String("id", req.ID),
			logging.String("topic", topic),
		)
		return "", errors.DispatchError(fmt.Sprintf("failed to publish to topic %s", topic), err)
	}

	q.logger.Info("Request enqueued",
		logging.String("id", req.ID),
		logging.String("topic", topic),
	)
	return req.ID, nil
}
