// Package executor performs outbound HTTP calls described by integration
// requests and populates the response cache after successful calls.
package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"integration-gateway/internal/cache"
	"integration-gateway/internal/common/errors"
	httpclient "integration-gateway/internal/common/http"
	"integration-gateway/internal/common/logging"
	"integration-gateway/internal/encoding"
	"integration-gateway/internal/fingerprint"
	"integration-gateway/internal/models"
)

// Executor performs one outbound call for a request.
type Executor interface {
	Execute(ctx context.Context, req *models.IntegrationRequest) (*models.ResponseEnvelope, error)
}

// Doer sends a single buffered HTTP request.
type Doer interface {
	Request(ctx context.Context, opts *httpclient.RequestOptions) (*httpclient.Response, error)
}

type Options struct {
	TTL cache.TTLPolicy
	// WriteTimeout bounds each background cache write
	WriteTimeout time.Duration
}

// HTTPExecutor executes requests over HTTP. After a successful call the
// envelope is written to the store in the background; the write never delays
// or changes the returned result.
type HTTPExecutor struct {
	client       Doer
	fingerprints fingerprint.Generator
	store        cache.Store
	ttl          cache.TTLPolicy
	writeTimeout time.Duration
	logger       logging.Logger

	pending sync.WaitGroup
}

func NewHTTPExecutor(client Doer, fingerprints fingerprint.Generator, store cache.Store, opts Options) *HTTPExecutor {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	return &HTTPExecutor{
		client:       client,
		fingerprints: fingerprints,
		store:        store,
		ttl:          opts.TTL,
		writeTimeout: opts.WriteTimeout,
		logger:       logging.Component("executor"),
	}
}

func (e *HTTPExecutor) Execute(ctx context.Context, req *models.IntegrationRequest) (*models.ResponseEnvelope, error) {
	payload := &encoding.Payload{}
	if encoding.SendsBody(req.Method) {
		var err error
		payload, err = encoding.Encode(req.Body, req.BodyEncoding)
		if err != nil {
			return nil, errors.ValidationError(err.Error())
		}
	}

	headers := make(map[string]string, len(req.Headers)+1)
	for k, v := range req.Headers {
		headers[k] = v
	}
	if payload.ContentType != "" && !hasHeader(headers, "Content-Type") {
		headers["Content-Type"] = payload.ContentType
	}

	logger := e.logger.WithFields(
		logging.String("method", req.Method),
		logging.String("url", req.URL),
	)

	resp, err := e.client.Request(ctx, &httpclient.RequestOptions{
		Method:  req.Method,
		URL:     req.URL,
		Body:    payload.Body,
		Headers: headers,
	})
	if err != nil {
		logger.Warn("External call failed", logging.Err(err))
		return nil, errors.ExternalCallError(0, err.Error(), err)
	}

	logger = logger.WithFields(
		logging.Int("status", resp.StatusCode),
		logging.Duration("duration", resp.Duration),
	)

	if !resp.IsSuccess() {
		logger.Warn("External call returned non-success status")
		return nil, errors.ExternalCallError(resp.StatusCode, string(resp.RawBody), nil)
	}

	env, err := encoding.Decode(req.Method, resp.RawBody)
	if err != nil {
		logger.Warn("External call returned an undecodable body", logging.Err(err))
		return nil, errors.ExternalCallError(0, fmt.Sprintf("invalid JSON response: %v", err), err)
	}

	logger.Debug("External call succeeded")
	e.cacheAsync(ctx, req, env)

	return env, nil
}

// cacheAsync stores env under the request fingerprint on a goroutine that
// outlives the caller's cancellation. Fire-and-forget calls are never cached.
func (e *HTTPExecutor) cacheAsync(ctx context.Context, req *models.IntegrationRequest, env *models.ResponseEnvelope) {
	if e.store == nil || e.fingerprints == nil {
		return
	}
	if req.OperationType == models.OperationFireAndForget {
		return
	}

	key, err := e.fingerprints.Generate(req.Body, req.URL, string(req.OperationType))
	if err != nil {
		e.logger.Warn("Skipping cache write, fingerprint failed", logging.Err(err))
		return
	}
	ttl := e.ttl.For(req.CachePolicy.StrictCacheTimeInMinutes)

	e.pending.Add(1)
	go func() {
		defer e.pending.Done()

		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.writeTimeout)
		defer cancel()

		if err := e.store.Set(writeCtx, key, env, ttl); err != nil {
			e.logger.Warn("Cache write failed", logging.Err(err), logging.String("url", req.URL))
			return
		}
		e.logger.Debug("Response cached", logging.String("url", req.URL), logging.Duration("ttl", ttl))
	}()
}

// Wait blocks until pending cache writes finish.
func (e *HTTPExecutor) Wait() {
	e.pending.Wait()
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
