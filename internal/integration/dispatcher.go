package integration

import (
	"context"
	"fmt"

	"integration-gateway/internal/cache"
	"integration-gateway/internal/common/errors"
	"integration-gateway/internal/common/logging"
	"integration-gateway/internal/dispatch"
	"integration-gateway/internal/executor"
	"integration-gateway/internal/fingerprint"
	"integration-gateway/internal/models"
)

// Dependencies are the collaborators of a Dispatcher. Validator and Enricher
// fall back to RequestValidator and DefaultEnricher when nil.
type Dependencies struct {
	Validator    Validator
	Enricher     Enricher
	Queue        dispatch.Queue
	Executor     executor.Executor
	Store        cache.Store
	Fingerprints fingerprint.Generator

	// Topic receives fire-and-forget requests
	Topic string
}

// Dispatcher orchestrates a single integration request
type Dispatcher struct {
	validator    Validator
	enricher     Enricher
	queue        dispatch.Queue
	executor     executor.Executor
	store        cache.Store
	fingerprints fingerprint.Generator
	topic        string
	logger       logging.Logger
}

func NewDispatcher(deps Dependencies) (*Dispatcher, error) {
	switch {
	case deps.Queue == nil:
		return nil, errors.ConfigError("dispatcher requires a queue")
	case deps.Executor == nil:
		return nil, errors.ConfigError("dispatcher requires an executor")
	case deps.Store == nil:
		return nil, errors.ConfigError("dispatcher requires a cache store")
	case deps.Fingerprints == nil:
		return nil, errors.ConfigError("dispatcher requires a fingerprint generator")
	case deps.Topic == "":
		return nil, errors.ConfigError("dispatcher requires a queue topic")
	}

	if deps.Validator == nil {
		deps.Validator = NewRequestValidator()
	}
	if deps.Enricher == nil {
		deps.Enricher = DefaultEnricher{}
	}

	return &Dispatcher{
		validator:    deps.Validator,
		enricher:     deps.Enricher,
		queue:        deps.Queue,
		executor:     deps.Executor,
		store:        deps.Store,
		fingerprints: deps.Fingerprints,
		topic:        deps.Topic,
		logger:       logging.Component("dispatcher"),
	}, nil
}

// Dispatch validates, enriches and routes req. Dispatch and external call
// errors are returned unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, req *models.IntegrationRequest) (*models.ResponseEnvelope, error) {
	if err := d.validator.Validate(req); err != nil {
		if _, ok := errors.As(err); !ok {
			err = errors.ValidationError(err.Error())
		}
		return nil, err
	}

	if err := d.enricher.Enrich(req); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to enrich request: %v", err))
	}

	if req.OperationType == models.OperationFireAndForget {
		return d.enqueue(ctx, req)
	}
	return d.sync(ctx, req)
}

func (d *Dispatcher) enqueue(ctx context.Context, req *models.IntegrationRequest) (*models.ResponseEnvelope, error) {
	id, err := d.queue.Enqueue(ctx, d.topic, req)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("Request queued",
		logging.String("id", id),
		logging.String("topic", d.topic),
		logging.String("url", req.URL),
	)
	return &models.ResponseEnvelope{ID: id}, nil
}

func (d *Dispatcher) sync(ctx context.Context, req *models.IntegrationRequest) (*models.ResponseEnvelope, error) {
	key, err := d.fingerprints.Generate(req.Body, req.URL, string(req.OperationType))
	if err != nil {
		return nil, errors.InternalError("failed to compute request fingerprint", err)
	}

	policy := req.CachePolicy
	switch {
	case policy.BypassCache:
		return d.executor.Execute(ctx, req)

	case policy.AlwaysReadFromCache:
		if env, ok := d.lookup(ctx, key, req); ok {
			return env, nil
		}
		return models.EmptyEnvelope(), nil

	default:
		if env, ok := d.lookup(ctx, key, req); ok {
			return env, nil
		}
		return d.executor.Execute(ctx, req)
	}
}

// lookup reads the cache; failures count as a miss
func (d *Dispatcher) lookup(ctx context.Context, key string, req *models.IntegrationRequest) (*models.ResponseEnvelope, bool) {
	env, found, err := d.store.Get(ctx, key)
	if err != nil {
		d.logger.Warn("Cache read failed, treating as miss",
			logging.Err(err),
			logging.String("url", req.URL),
		)
		return nil, false
	}
	if !found || env == nil {
		return nil, false
	}

	d.logger.Debug("Cache hit", logging.String("url", req.URL))
	return env, true
}
