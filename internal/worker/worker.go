// Package worker executes fire-and-forget requests taken from the work queue.
//
// Delivery is at-most-once: every message is acknowledged whether or not the
// outbound call succeeded, and nothing is retried.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"integration-gateway/internal/brokers"
	"integration-gateway/internal/common/errors"
	"integration-gateway/internal/common/logging"
	"integration-gateway/internal/executor"
	"integration-gateway/internal/integration"
	"integration-gateway/internal/models"
)

var (
	ErrAlreadyRunning = fmt.Errorf("worker is already running")
	ErrNotRunning     = fmt.Errorf("worker is not running")
)

// Stats counts processed messages
type Stats struct {
	Received  int64 `json:"received"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
}

// Worker subscribes to a topic and runs each queued request through an executor
type Worker struct {
	broker    brokers.Broker
	topic     string
	executor  executor.Executor
	validator integration.Validator
	enricher  integration.Enricher
	logger    logging.Logger

	mu            sync.RWMutex
	isRunning     bool
	cancel        context.CancelFunc
	done          chan struct{}
	lastExecution *time.Time

	received  atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

func New(broker brokers.Broker, topic string, exec executor.Executor) *Worker {
	return &Worker{
		broker:    broker,
		topic:     topic,
		executor:  exec,
		validator: integration.NewRequestValidator(),
		enricher:  integration.DefaultEnricher{},
		logger: logging.Component("worker").WithFields(
			logging.String("broker", broker.Name()),
			logging.String("topic", topic),
		),
	}
}

// Start subscribes in the background. The subscription ends when ctx is
// cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return ErrAlreadyRunning
	}

	subCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.isRunning = true

	go func(done chan struct{}) {
		defer close(done)
		if err := w.broker.Subscribe(subCtx, w.topic, w.Handle); err != nil && subCtx.Err() == nil {
			w.logger.Error("Subscription ended", err)
		}
		w.mu.Lock()
		w.isRunning = false
		w.mu.Unlock()
	}(w.done)

	w.logger.Info("Worker started")
	return nil
}

// Stop cancels the subscription and waits for it to return
func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return ErrNotRunning
	}
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	w.logger.Info("Worker stopped")
	return nil
}

func (w *Worker) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isRunning
}

func (w *Worker) LastExecution() *time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastExecution
}

func (w *Worker) Stats() Stats {
	return Stats{
		Received:  w.received.Load(),
		Succeeded: w.succeeded.Load(),
		Failed:    w.failed.Load(),
		Dropped:   w.dropped.Load(),
	}
}

func (w *Worker) Health() error {
	if !w.IsRunning() {
		return ErrNotRunning
	}
	if err := w.broker.Health(); err != nil {
		return fmt.Errorf("broker health check failed: %w", err)
	}
	return nil
}

// Handle executes one queued request. It always returns nil so the broker
// acknowledges the message.
func (w *Worker) Handle(ctx context.Context, message *brokers.IncomingMessage) error {
	w.received.Add(1)
	now := time.Now()
	w.mu.Lock()
	w.lastExecution = &now
	w.mu.Unlock()

	logger := w.logger.WithFields(logging.String("message_id", message.ID))

	req, err := w.decode(message)
	if err != nil {
		w.dropped.Add(1)
		logger.Warn("Dropping undecodable message", logging.Err(err))
		return nil
	}
	logger = logger.WithFields(
		logging.String("id", req.ID),
		logging.String("url", req.URL),
	)

	if _, err := w.executor.Execute(ctx, req); err != nil {
		w.failed.Add(1)
		fields := []logging.Field{logging.String("kind", errors.Kind(err))}
		if appErr, ok := errors.As(err); ok && appErr.StatusCode != 0 {
			fields = append(fields, logging.Int("status", appErr.StatusCode))
		}
		logger.Error("Queued request failed", err, fields...)
		return nil
	}

	w.succeeded.Add(1)
	logger.Debug("Queued request executed")
	return nil
}

func (w *Worker) decode(message *brokers.IncomingMessage) (*models.IntegrationRequest, error) {
	var req models.IntegrationRequest
	if err := json.Unmarshal(message.Body, &req); err != nil {
		return nil, fmt.Errorf("invalid request payload: %w", err)
	}
	if req.OperationType == "" {
		req.OperationType = models.OperationFireAndForget
	}
	if err := w.validator.Validate(&req); err != nil {
		return nil, err
	}
	if err := w.enricher.Enrich(&req); err != nil {
		return nil, err
	}
	if req.ID == "" {
		req.ID = message.ID
	}
	return &req, nil
}
